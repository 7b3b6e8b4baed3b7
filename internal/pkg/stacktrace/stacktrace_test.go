package stacktrace

import (
	"reflect"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/dinebook/internal/pkg/goroutine.(*Manager).Go.func1.1()
	/src/dinebook/internal/pkg/goroutine/goroutine.go:61 +0x45
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/shandysiswandi/dinebook/internal/notification/usecase.(*Usecase).send()
	/src/dinebook/internal/notification/usecase/email.go:40`)

	got := InternalPaths(stack)

	want := []string{
		"internal/pkg/goroutine/goroutine.go:61",
		"internal/notification/usecase/email.go:40",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("InternalPaths() = %v, want %v", got, want)
	}
}
