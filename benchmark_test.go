package injector

import (
	"context"
	"testing"
)

func valueFunc(ctx context.Context) (any, error) {
	return "value", nil
}

// Benchmark service registration.
func BenchmarkRegister_Func(b *testing.B) {
	for i := 0; i < b.N; i++ {
		c := New()
		_ = c.Register("service", Func(valueFunc), Singleton())
	}
}

func BenchmarkRegister_Constructor(b *testing.B) {
	for i := 0; i < b.N; i++ {
		c := New()
		_ = c.Register("service", Constructor(newTestUserService))
	}
}

// Benchmark service resolution.
func BenchmarkGet_Singleton_Cached(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = c.Register("service", Func(valueFunc), Singleton())

	// Warm up cache
	_, _ = c.Get(ctx, "service")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "service")
	}
}

func BenchmarkGet_PerRequest(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = c.Register("service", Func(valueFunc))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "service")
	}
}

func BenchmarkGet_Scoped(b *testing.B) {
	c := New()
	_ = c.Register("service", Func(valueFunc), Scoped())

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	ctx := scope.Context()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "service")
	}
}

func BenchmarkGet_Constructor(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = ProvideConstructor[*testDatabase](c, newTestDatabase, Singleton())
	_ = ProvideConstructor[*testLogger](c, newTestLogger, Singleton())
	_ = ProvideConstructor[*testUserService](c, newTestUserService)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, TypeID[*testUserService]())
	}
}

func BenchmarkGet_InStruct(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = ProvideValue(c, &testDatabase{})
	_ = c.Register("audit.logger", Value(&testLogger{}))
	_ = c.Register("report", Constructor(newReport), WithParams(Params{"title": "bench", "copies": 1}))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "report")
	}
}

func BenchmarkGet_Parallel(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = c.Register("service", Func(valueFunc), Singleton())

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.Get(ctx, "service")
		}
	})
}

// Benchmark scope operations.
func BenchmarkScope_CreateAndEnd(b *testing.B) {
	c := New()
	ctx := context.Background()
	_ = c.Register("service", Func(valueFunc), Scoped())

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = c.CreateScope(ctx, func(ctx context.Context) error {
			_, err := c.Get(ctx, "service")

			return err
		})
	}
}

func BenchmarkValidate(b *testing.B) {
	c := New()
	for i := 0; i < 50; i++ {
		id := ServiceID("svc" + string(rune('A'+i)))

		var deps []ServiceID
		if i > 0 {
			deps = []ServiceID{ServiceID("svc" + string(rune('A'+i-1)))}
		}

		_ = c.Register(id, Func(valueFunc), DependsOn(deps...))
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = c.Validate()
	}
}
