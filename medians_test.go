// Copyright ©2019 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vptree

import (
	"sort"

	"golang.org/x/exp/rand"

	check "gopkg.in/check.v1"
)

func (s *S) TestPartition(c *check.C) {
	for i, test := range [][]float64{
		{0},
		{1, 0},
		{2, 0, 1},
		{1, 1, 1, 1},
		{5, 1, 4, 2, 3, 0},
	} {
		for pivot := range test {
			d := append([]float64(nil), test...)
			v := d[pivot]
			at := Partition(distSlice(d), pivot)
			c.Check(d[at], check.Equals, v, check.Commentf("Test %d pivot %d", i, pivot))
			for _, e := range d[:at] {
				c.Check(e <= v, check.Equals, true, check.Commentf("Test %d pivot %d: %v", i, pivot, d))
			}
			for _, e := range d[at+1:] {
				c.Check(e > v, check.Equals, true, check.Commentf("Test %d pivot %d: %v", i, pivot, d))
			}
		}
	}
	c.Check(Partition(distSlice(nil), 0), check.Equals, -1)
}

func (s *S) TestSelect(c *check.C) {
	rnd := rand.New(rand.NewSource(1))
	for size := 1; size <= 100; size += 9 {
		d := make([]float64, size)
		for i := range d {
			d[i] = rnd.Float64()
		}
		want := append([]float64(nil), d...)
		sort.Float64s(want)
		for k := 0; k < size; k += 3 {
			got := append([]float64(nil), d...)
			Select(distSlice(got), k)
			c.Check(got[k], check.Equals, want[k], check.Commentf("Size %d k %d", size, k))
		}
	}
}

func (s *S) TestSelectOutOfRange(c *check.C) {
	c.Check(func() { Select(distSlice{1, 2}, 2) }, check.PanicMatches, "vptree: index out of range")
	c.Check(Select(distSlice(nil), 0), check.Equals, 0)
}

func (s *S) TestMedian(c *check.C) {
	rnd := rand.New(rand.NewSource(1))
	c.Check(median(nil), check.Equals, 0.0)
	c.Check(median([]float64{0.5}), check.Equals, 0.5)
	for size := 2; size <= 50; size++ {
		d := make([]float64, size)
		for i := range d {
			d[i] = rnd.Float64()
		}
		want := append([]float64(nil), d...)
		sort.Float64s(want)
		c.Check(median(d), check.Equals, want[size/2], check.Commentf("Size %d", size))
	}
}
