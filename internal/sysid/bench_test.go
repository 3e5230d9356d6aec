package sysid

import (
	"math/rand"
	"testing"
)

func benchWindow(b *testing.B, n, w int) {
	rng := rand.New(rand.NewSource(1))
	xs, ys := randomPairs(testOperator(n), w+256, 0.05, rng)
	est, err := NewWindow(n, w, 0.99)
	if err != nil {
		b.Fatal(err)
	}
	x0, y0 := blocks(xs, ys, 0, w)
	if err := est.Fit(x0, y0); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := w + i%256
		if err := est.Update(xs[j], ys[j]); err != nil {
			b.Fatal(err)
		}
	}
}

func benchRefit(b *testing.B, n, w int) {
	rng := rand.New(rand.NewSource(1))
	xs, ys := randomPairs(testOperator(n), w, 0.05, rng)
	x0, y0 := blocks(xs, ys, 0, w)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FitOperator(x0, y0, 0.99, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWindowUpdate(b *testing.B) { benchWindow(b, 8, 64) }

func BenchmarkWindowUpdate_Large(b *testing.B) { benchWindow(b, 32, 256) }

func BenchmarkBatchRefit(b *testing.B) { benchRefit(b, 8, 64) }

func BenchmarkBatchRefit_Large(b *testing.B) { benchRefit(b, 32, 256) }

func BenchmarkOnlineUpdate(b *testing.B) {
	const n = 8
	rng := rand.New(rand.NewSource(1))
	xs, ys := randomPairs(testOperator(n), n+256, 0.05, rng)
	est, err := NewOnline(n, 0.99)
	if err != nil {
		b.Fatal(err)
	}
	x0, y0 := blocks(xs, ys, 0, n)
	if err := est.Fit(x0, y0); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := n + i%256
		if err := est.Update(xs[j], ys[j]); err != nil {
			b.Fatal(err)
		}
	}
}
