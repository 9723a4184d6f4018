// Copyright ©2019 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vptree

import (
	"sort"

	"golang.org/x/exp/rand"
)

// Partition partitions list such that all elements less than the value at
// pivot prior to the call are placed before that element and all elements
// greater than that value are placed after it. The final location of the
// element at pivot prior to the call is returned.
func Partition(list sort.Interface, pivot int) int {
	var index, last int
	if last = list.Len() - 1; last < 0 {
		return -1
	}
	list.Swap(pivot, last)
	for i := 0; i < last; i++ {
		if !list.Less(last, i) {
			list.Swap(index, i)
			index++
		}
	}
	list.Swap(last, index)
	return index
}

// A SortSlicer satisfies the sort.Interface and is able to slice itself.
type SortSlicer interface {
	sort.Interface
	Slice(start, end int) SortSlicer
}

// Select partitions list such that all elements less than the kth largest
// element are placed before k in the resulting list and all elements greater
// than it are placed after the position k.
func Select(list SortSlicer, k int) int {
	var (
		start int
		end   = list.Len()
	)
	if k >= end {
		if k == 0 {
			return 0
		}
		panic("vptree: index out of range")
	}
	if start == end-1 {
		return k
	}

	for {
		if start == end {
			panic("vptree: internal inconsistency")
		}
		sub := list.Slice(start, end)
		pivot := Partition(sub, rand.Intn(sub.Len()))
		switch {
		case pivot == k:
			return k
		case k < pivot:
			end = pivot + start
		default:
			k -= pivot
			start += pivot
		}
	}
}

// A distSlice is a collection of distance values that satisfies the
// SortSlicer interface.
type distSlice []float64

func (d distSlice) Len() int                        { return len(d) }
func (d distSlice) Less(i, j int) bool              { return d[i] < d[j] }
func (d distSlice) Swap(i, j int)                   { d[i], d[j] = d[j], d[i] }
func (d distSlice) Slice(start, end int) SortSlicer { return d[start:end] }

// median returns the upper median of d, leaving d partitioned around the
// returned value. The median of an empty slice is 0.
func median(d []float64) float64 {
	if len(d) == 0 {
		return 0
	}
	k := len(d) / 2
	Select(distSlice(d), k)
	return d[k]
}

// bootstrap returns n indices drawn uniformly with replacement from [0, size).
func (b *builder) bootstrap(n, size int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = b.intn(size)
	}
	return idx
}
