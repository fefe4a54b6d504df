package registry

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func BenchmarkResolve(b *testing.B) {
	for _, size := range []int{1, 100, 5000, 20000} {
		b.Run(fmt.Sprintf("bindings=%d", size), func(b *testing.B) {
			reg := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			for i := range size {
				_ = reg.Bind(Contract(fmt.Sprintf("svc.%d", i)), &stubAudio{id: i})
			}
			_ = Register[audioService](reg, &stubAudio{})

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, _ = Resolve[audioService](reg)
				}
			})
		})
	}
}
