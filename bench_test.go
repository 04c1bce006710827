package patchc_test

import (
	"testing"

	"github.com/glowkit/patchc"
	"github.com/glowkit/patchc/runtime"
)

func BenchmarkCompileScene(b *testing.B) {
	reg := newRegistry(b)
	p := scenePatch()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := patchc.Compile(reg, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExecuteFrame(b *testing.B) {
	reg := newRegistry(b)
	prog, err := patchc.Compile(reg, scenePatch())
	if err != nil {
		b.Fatal(err)
	}

	st := runtime.NewState(prog)
	pool := runtime.NewPool()
	runtime.ExecuteFrame(prog, st, pool, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runtime.ExecuteFrame(prog, st, pool, float64(i)*16)
	}
}
