package chainmap

import (
	"fmt"
	"testing"
)

var benchData [128 << 10]string

func init() {
	for i := range benchData {
		benchData[i] = fmt.Sprintf("%b", i)
	}
}

func BenchmarkMapOfInsert(b *testing.B) {
	b.ReportAllocs()
	m := NewMapOf[string, int](WithPresize(len(benchData)))
	b.ResetTimer()
	i := 0
	for n := 0; n < b.N; n++ {
		m.Insert(benchData[i], i)
		i++
		if i >= len(benchData) {
			i = 0
		}
	}
}

func BenchmarkMapOfFindHit(b *testing.B) {
	b.ReportAllocs()
	m := NewMapOf[string, int]()
	for i := range benchData {
		m.Insert(benchData[i], i)
	}
	b.ResetTimer()
	i := 0
	for n := 0; n < b.N; n++ {
		_ = m.Find(benchData[i])
		i++
		if i >= len(benchData) {
			i = 0
		}
	}
}

func BenchmarkMapOfFindMiss(b *testing.B) {
	b.ReportAllocs()
	m := NewMapOf[string, int]()
	for i := range benchData {
		m.Insert(benchData[i], i)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = m.Find("absent")
	}
}

func BenchmarkMapOfInsertErase(b *testing.B) {
	b.ReportAllocs()
	m := NewMapOf[string, int]()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		h, _, _ := m.Insert(benchData[n&1023], n)
		m.Erase(h)
	}
}

func BenchmarkMapOfRehash(b *testing.B) {
	b.ReportAllocs()
	m := NewMapOf[string, int]()
	for i := 0; i < 1<<14; i++ {
		m.Insert(benchData[i], i)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		m.Rehash(m.BucketCount())
	}
}
