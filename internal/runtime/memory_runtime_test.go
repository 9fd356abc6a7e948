package runtime

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewMemoryRuntime(t *testing.T) {
	mr := NewMemoryRuntime()
	if mr == nil {
		t.Fatal("expected MemoryRuntime to be created")
	}
	if mr.running == nil {
		t.Error("expected running map to be initialized")
	}
	if mr.logs == nil {
		t.Error("expected logs map to be initialized")
	}
}

func TestMemoryRuntime_Run(t *testing.T) {
	mr := NewMemoryRuntime()
	ctx := context.Background()

	id, err := mr.Run(ctx, RunSpec{Image: "goout/locations:latest", Port: 8080})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "mem-1" {
		t.Errorf("expected first container id mem-1, got %s", id)
	}
	if !mr.IsRunning(id) {
		t.Error("expected container to be running")
	}

	logs, err := mr.Logs(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(logs, "8080") {
		t.Errorf("expected startup logs to mention port, got %q", logs)
	}

	id2, err := mr.Run(ctx, RunSpec{Image: "goout/locations:latest", Port: 8080})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id2 != "mem-2" {
		t.Errorf("expected second container id mem-2, got %s", id2)
	}
}

func TestMemoryRuntime_Kill(t *testing.T) {
	mr := NewMemoryRuntime()
	ctx := context.Background()

	id, err := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mr.Kill(ctx, id); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if mr.IsRunning(id) {
		t.Error("expected container to be stopped after kill")
	}

	if err := mr.Kill(ctx, "mem-99"); err == nil {
		t.Error("expected error killing unknown container")
	}
}

func TestMemoryRuntime_Logs_Unknown(t *testing.T) {
	mr := NewMemoryRuntime()

	if _, err := mr.Logs(context.Background(), "mem-99"); err == nil {
		t.Error("expected error for unknown container")
	}
}

func TestMemoryRuntime_SetAndAppendLogs(t *testing.T) {
	mr := NewMemoryRuntime()
	ctx := context.Background()

	id, _ := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})

	mr.SetLogs(id, "first line\n")
	mr.AppendLogs(id, "second line\n")

	logs, err := mr.Logs(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs != "first line\nsecond line\n" {
		t.Errorf("unexpected logs: %q", logs)
	}
}

func TestMemoryRuntime_Stats(t *testing.T) {
	mr := NewMemoryRuntime()
	mr.SetStatsInterval(time.Millisecond)
	ctx := context.Background()

	id, _ := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})

	stream, err := mr.Stats(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	first, err := stream.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := stream.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.CPUTotalMs <= first.CPUTotalMs {
		t.Errorf("expected cpu counter to grow, got %v then %v", first.CPUTotalMs, second.CPUTotalMs)
	}
	if first.MemUsageMB <= 0 || first.MemMaxUsageMB <= 0 {
		t.Errorf("expected positive memory readings, got %+v", first)
	}
}

func TestMemoryRuntime_Stats_Unknown(t *testing.T) {
	mr := NewMemoryRuntime()

	if _, err := mr.Stats(context.Background(), "mem-99"); err == nil {
		t.Error("expected error for unknown container")
	}
}

func TestMemoryRuntime_Stats_ClosedStreamReturnsEOF(t *testing.T) {
	mr := NewMemoryRuntime()
	mr.SetStatsInterval(time.Millisecond)
	ctx := context.Background()

	id, _ := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})
	stream, err := mr.Stats(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected io.EOF from closed stream, got %v", err)
	}
}

func TestMemoryRuntime_Stats_InjectedError(t *testing.T) {
	mr := NewMemoryRuntime()
	mr.SetStatsInterval(time.Millisecond)
	injected := errors.New("stream broke")
	mr.InjectStatsError(injected, 2)
	ctx := context.Background()

	id, _ := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})
	stream, err := mr.Stats(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	for i := 0; i < 2; i++ {
		if _, err := stream.Next(); err != nil {
			t.Fatalf("unexpected error on sample %d: %v", i, err)
		}
	}
	if _, err := stream.Next(); !errors.Is(err, injected) {
		t.Errorf("expected injected error after 2 samples, got %v", err)
	}
}

func TestMemoryRuntime_ConcurrentAccess(t *testing.T) {
	mr := NewMemoryRuntime()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := mr.Run(ctx, RunSpec{Image: "img", Port: 8080})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mr.AppendLogs(id, "line\n")
			if err := mr.Kill(ctx, id); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}
