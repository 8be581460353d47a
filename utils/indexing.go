package utils

import (
	"fmt"
	"sort"
)

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	if size <= 0 {
		return Index{}
	}
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func (I Index) Copy() (r Index) {
	r = make(Index, len(I))
	copy(r, I)
	return
}

func (I Index) Add(val int) (r Index) {
	r = make(Index, len(I))
	for i, ival := range I {
		r[i] = val + ival
	}
	return r
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for j, val := range J {
		r[j] = I[val]
	}
	return
}

func (I Index) Concat(J Index) (r Index) {
	r = make(Index, 0, len(I)+len(J))
	r = append(r, I...)
	r = append(r, J...)
	return
}

// Unique returns a sorted copy of I with duplicates removed
func (I Index) Unique() (r Index) {
	r = I.Copy()
	sort.Ints(r)
	var n int
	for i, val := range r {
		if i == 0 || val != r[n-1] {
			r[n] = val
			n++
		}
	}
	return r[:n]
}

func (I Index) Max() (max int) {
	max = -1
	for _, val := range I {
		if val > max {
			max = val
		}
	}
	return
}

func (I Index) Contains(val int) bool {
	for _, ival := range I {
		if ival == val {
			return true
		}
	}
	return false
}

// CheckBounds returns an error if any entry falls outside [0, n)
func (I Index) CheckBounds(n int) (err error) {
	for i, val := range I {
		if val < 0 || val >= n {
			err = fmt.Errorf("index[%d] = %d out of bounds [0,%d)", i, val, n)
			return
		}
	}
	return
}
