package services

// BaseService provides the name and phase bookkeeping of the Service interface
// so concrete services only implement the hooks they need.
type BaseService struct {
	name   string
	phases []State
}

// NewBaseService creates a new base service
func NewBaseService(name string, phases ...State) *BaseService {
	return &BaseService{
		name:   name,
		phases: phases,
	}
}

// Name returns the service name
func (b *BaseService) Name() string {
	return b.name
}

// Phases returns the phases the service declared
func (b *BaseService) Phases() []State {
	out := make([]State, len(b.phases))
	copy(out, b.phases)
	return out
}

// Declares reports whether phase is one of the declared phases
func (b *BaseService) Declares(phase State) bool {
	return declares(b, phase)
}

func declares(svc Service, phase State) bool {
	for _, p := range svc.Phases() {
		if p == phase {
			return true
		}
	}
	return false
}
