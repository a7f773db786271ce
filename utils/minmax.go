// Copyright (c) 2013-2018 KIDTSUNAMI
// Author: alex@kidtsunami.com

package util

import (
	"time"
)

func Max(x, y int) int {
	if x < y {
		return y
	} else {
		return x
	}
}

func Min(x, y int) int {
	if x > y {
		return y
	}
	return x
}

func Max64(x, y int64) int64 {
	if x < y {
		return y
	}
	return x
}

func Min64(x, y int64) int64 {
	if x > y {
		return y
	}
	return x
}

func Max64N(nums ...int64) int64 {
	switch len(nums) {
	case 0:
		return 0
	case 1:
		return nums[0]
	default:
		n := nums[0]
		for _, v := range nums[1:] {
			if v > n {
				n = v
			}
		}
		return n
	}
}

func MaxDuration(a, b time.Duration) time.Duration {
	if int64(a) < int64(b) {
		return b
	}
	return a
}

func MinDuration(a, b time.Duration) time.Duration {
	if int64(a) > int64(b) {
		return b
	}
	return a
}
