package commands

import (
	"context"
	"errors"
	"testing"

	"zendo/internal/service"
	"zendo/internal/testutil"
)

func TestParseTaskRef_Numeric(t *testing.T) {
	ref, err := ParseTaskRef([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected Num 5, got %+v", ref)
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"8f1c2d3e-aaaa-bbbb-cccc-1234567890ab"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "8f1c2d3e-aaaa-bbbb-cccc-1234567890ab" || ref.Num != 0 {
		t.Errorf("expected id ref, got %+v", ref)
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"none", nil, "task reference required"},
		{"blank", []string{"  "}, "task reference required"},
		{"extra", []string{"1", "2"}, "unexpected argument: 2"},
		{"overflow", []string{"99999999999999999999999"}, "invalid task reference: 99999999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskRef(tt.args)
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected error %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFindTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "a", Title: "first"})
	svc.AddTask(service.Task{ID: "b", Title: "second"})
	ctx := context.Background()

	got, err := findTask(ctx, svc, TaskRef{Num: 2})
	if err != nil || got.ID != "b" {
		t.Errorf("expected b, got %+v (%v)", got, err)
	}

	got, err = findTask(ctx, svc, TaskRef{ID: "a"})
	if err != nil || got.Title != "first" {
		t.Errorf("expected a, got %+v (%v)", got, err)
	}

	if _, err := findTask(ctx, svc, TaskRef{Num: 3}); !errors.Is(err, errOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
	if _, err := findTask(ctx, svc, TaskRef{Num: 0}); !errors.Is(err, errOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
	if _, err := findTask(ctx, svc, TaskRef{ID: "zzz"}); !errors.Is(err, errTaskNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
