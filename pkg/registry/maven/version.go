// Copyright 2025 The xRegistry Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"regexp"
	"strconv"
	"strings"
)

var atomSplit = regexp.MustCompile(`[.-]`)
var numericAtom = regexp.MustCompile(`^[0-9]+$`)

// qualifierRank implements spec.md §4.H's total qualifier order: lower
// ranks earlier. Unrecognized qualifiers rank as "ga", the neutral release
// qualifier, per the spec's explicit fallback.
var qualifierRank = map[string]int{
	"alpha":     1,
	"beta":      2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"snapshot":  5,
	"ga":        6,
	"final":     6,
	"release":   6,
	"sp":        7,
}

const defaultQualifierRank = 6 // "ga"

// rankOf ranks a string atom by its leading letters, so a qualifier with a
// numeric suffix ("rc1", "sp2") ranks as its base qualifier.
func rankOf(qualifier string) int {
	if r, ok := qualifierRank[strings.TrimRight(qualifier, "0123456789")]; ok {
		return r
	}
	return defaultQualifierRank
}

// atoms splits a version string on '.' and '-', grounded on
// google-deps.dev/util/semver/maven.go's atom-splitting approach but
// reimplemented against this spec's simpler (non-Maven-3.9) ordering
// rules: every split segment is one atom, and an empty segment (e.g. from
// "1..0" or a leading separator) is treated as "0".
func atoms(v string) []string {
	parts := atomSplit.Split(v, -1)
	for i, p := range parts {
		if p == "" {
			parts[i] = "0"
		}
	}
	return parts
}

// CompareVersions implements the total order of spec.md §4.H: atom-by-atom
// comparison where a numeric atom always outranks a string atom at the
// same slot, two numeric atoms compare as integers, and two string atoms
// compare by qualifier rank and then lexically. Missing trailing atoms are
// treated as "0". The result is negative, zero, or positive as a < b,
// a == b, or a > b; CompareVersions(a, b) == -CompareVersions(b, a).
func CompareVersions(a, b string) int {
	atomsA, atomsB := atoms(a), atoms(b)
	n := len(atomsA)
	if len(atomsB) > n {
		n = len(atomsB)
	}
	for i := 0; i < n; i++ {
		av, bv := "0", "0"
		if i < len(atomsA) {
			av = atomsA[i]
		}
		if i < len(atomsB) {
			bv = atomsB[i]
		}
		if c := compareAtom(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

func compareAtom(a, b string) int {
	aNum, bNum := numericAtom.MatchString(a), numericAtom.MatchString(b)
	switch {
	case aNum && bNum:
		ai, _ := strconv.Atoi(a)
		bi, _ := strconv.Atoi(b)
		return cmpInt(ai, bi)
	case aNum && !bNum:
		return 1
	case !aNum && bNum:
		return -1
	default:
		al, bl := strings.ToLower(a), strings.ToLower(b)
		ra, rb := rankOf(al), rankOf(bl)
		if ra != rb {
			return cmpInt(ra, rb)
		}
		return strings.Compare(al, bl)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
