// Copyright 2025 The go-nnpack Authors. SPDX-License-Identifier: Apache-2.0

package nnp

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// detectCaches reads the cpu0 cache topology from sysfs. The L3 capacity is
// divided by the number of cores sharing it, because the blocking plan wants
// the share one core can count on, not the die total. Any missing or
// malformed attribute falls back to the conservative defaults.
func detectCaches() (l1, l2, l3 int) {
	l1, l2, l3 = defaultL1CacheBytes, defaultL2CacheBytes, defaultL3CacheBytes

	const cacheDir = "/sys/devices/system/cpu/cpu0/cache"
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return l1, l2, l3
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "index") {
			continue
		}
		dir := filepath.Join(cacheDir, entry.Name())

		typ := readSysfsString(filepath.Join(dir, "type"))
		if typ == "Instruction" {
			continue
		}
		level, ok := readSysfsInt(filepath.Join(dir, "level"))
		if !ok {
			continue
		}
		size, ok := parseCacheSize(readSysfsString(filepath.Join(dir, "size")))
		if !ok {
			continue
		}

		switch level {
		case 1:
			l1 = size
		case 2:
			l2 = size
		case 3:
			if sharers := countSharers(readSysfsString(filepath.Join(dir, "shared_cpu_list"))); sharers > 1 {
				size /= sharers
			}
			l3 = size
		}
	}
	return l1, l2, l3
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsInt(path string) (int, bool) {
	n, err := strconv.Atoi(readSysfsString(path))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseCacheSize parses the sysfs size format: a decimal count with an
// optional K or M suffix, e.g. "32K", "1M".
func parseCacheSize(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	mult := 1
	switch s[len(s)-1] {
	case 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * mult, true
}

// countSharers counts CPUs in a sysfs cpu-list string such as "0-7" or
// "0,4-6". Returns 0 on malformed input.
func countSharers(list string) int {
	if list == "" {
		return 0
	}
	count := 0
	for _, part := range strings.Split(list, ",") {
		lo, hi, ok := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0
		}
		if !ok {
			count++
			continue
		}
		last, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || last < first {
			return 0
		}
		count += last - first + 1
	}
	return count
}
