package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

// Sender delivers a notice.
type Sender interface {
	Send(ctx context.Context, n Notice) error
}

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Surface gates notices behind an explicit permission request.
type Surface struct {
	mu         sync.Mutex
	sender     Sender
	permission Permission
}

// NewSurface returns a surface that delivers through sender once permission
// has been granted. A nil sender can never be granted.
func NewSurface(sender Sender) *Surface {
	return &Surface{sender: sender, permission: PermissionDefault}
}

// RequestPermission resolves the permission state. It is granted exactly
// when a sender is configured.
func (s *Surface) RequestPermission(context.Context) Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permission != PermissionDefault {
		return s.permission
	}
	if s.sender == nil {
		s.permission = PermissionDenied
	} else {
		s.permission = PermissionGranted
	}
	slog.Debug("desktop permission resolved", "permission", s.permission)
	return s.permission
}

func (s *Surface) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// Show sends the notice for n. It is a no-op unless permission is granted.
func (s *Surface) Show(ctx context.Context, n notification.Notification) error {
	s.mu.Lock()
	granted := s.permission == PermissionGranted
	sender := s.sender
	s.mu.Unlock()

	if !granted {
		return nil
	}
	if err := sender.Send(ctx, NewNotice(n)); err != nil {
		return fmt.Errorf("show notice %s: %w", n.ID, err)
	}
	return nil
}
