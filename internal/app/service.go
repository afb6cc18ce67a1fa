package app

import (
	"time"

	"github.com/restartfu/corepanel/internal/domain"
	"github.com/restartfu/corepanel/internal/ports"
)

type Service struct {
	identity domain.HostIdentity
	cores    ports.CoreMonitor
	now      func() time.Time
}

func NewService(identity domain.HostIdentity, cores ports.CoreMonitor) *Service {
	return &Service{
		identity: identity,
		cores:    cores,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Health() domain.Health {
	return domain.Health{
		Status: "ok",
		Time:   s.now(),
	}
}

func (s *Service) Identity() domain.HostIdentity {
	return s.identity
}

func (s *Service) Cores() []domain.CoreState {
	if s.cores == nil {
		return []domain.CoreState{}
	}
	return s.cores.Snapshot()
}

func (s *Service) Panel() domain.Panel {
	return domain.Panel{
		Identity: s.identity,
		Cores:    s.Cores(),
		Time:     s.now(),
	}
}
