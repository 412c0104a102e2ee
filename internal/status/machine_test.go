package status

import (
	"errors"
	"testing"

	"hotel-backoffice/internal/models"
)

func TestCanTransition(t *testing.T) {
	all := []models.OrderStatus{
		models.StatusPending,
		models.StatusPickedUp,
		models.StatusReady,
		models.StatusDelivered,
		models.StatusCancelled,
	}

	legal := map[models.OrderStatus][]models.OrderStatus{
		models.StatusPending:  {models.StatusPickedUp, models.StatusCancelled},
		models.StatusPickedUp: {models.StatusReady, models.StatusCancelled},
		models.StatusReady:    {models.StatusDelivered, models.StatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(models.StatusPending, models.StatusPickedUp); err != nil {
		t.Errorf("Validate(pending, picked_up) = %v, want nil", err)
	}

	// Skipping intermediate states is not in the table.
	if err := Validate(models.StatusPending, models.StatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Validate(pending, delivered) = %v, want ErrInvalidTransition", err)
	}

	// Terminal states allow nothing, including cancellation.
	if err := Validate(models.StatusDelivered, models.StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Validate(delivered, cancelled) = %v, want ErrInvalidTransition", err)
	}
	if err := Validate(models.StatusCancelled, models.StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Validate(cancelled, pending) = %v, want ErrInvalidTransition", err)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		state models.OrderStatus
		want  bool
	}{
		{models.StatusPending, false},
		{models.StatusPickedUp, false},
		{models.StatusReady, false},
		{models.StatusDelivered, true},
		{models.StatusCancelled, true},
		{models.OrderStatus("unknown"), false},
	}

	for _, tt := range tests {
		if got := IsTerminal(tt.state); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
