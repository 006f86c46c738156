package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"yield/internal/core"
	"yield/internal/ports"
)

var _ ports.Backend = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	brokers []core.Broker
	values  []core.TotalValueRecord
}

func New(brokers []core.Broker) *Store {
	s := &Store{}
	seen := map[string]struct{}{}
	for _, b := range brokers {
		if b.Validate() != nil {
			continue
		}
		if _, ok := seen[b.Name]; ok {
			continue
		}
		seen[b.Name] = struct{}{}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.brokers = append(s.brokers, b)
	}
	return s
}

// NewFromFiles seeds brokers from <base>/seed_brokers.txt, one
// "name,currency" per line. A missing file yields an empty store.
func NewFromFiles(base string) *Store {
	return New(readBrokers(filepath.Join(base, "seed_brokers.txt")))
}

// AddBroker stores the broker and assigns it an id.
func (s *Store) AddBroker(_ context.Context, b core.Broker) (core.Broker, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Currency = strings.TrimSpace(b.Currency)
	if err := b.Validate(); err != nil {
		return core.Broker{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.brokers {
		if existing.Name == b.Name {
			return core.Broker{}, fmt.Errorf("%w: %s", core.ErrDuplicateBroker, b.Name)
		}
	}
	b.ID = uuid.NewString()
	s.brokers = append(s.brokers, b)
	return b, nil
}

func (s *Store) ListBrokers(_ context.Context) ([]core.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Broker(nil), s.brokers...), nil
}

// AddTotalValue stores the record under a fresh id.
func (s *Store) AddTotalValue(_ context.Context, r core.TotalValueRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.values = append(s.values, r)
	return ports.MsgTotalValueAdded, nil
}

func (s *Store) DeleteTotalValue(_ context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", core.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.values {
		if r.ID == id {
			s.values = append(s.values[:i:i], s.values[i+1:]...)
			return ports.MsgTotalValueDeleted, nil
		}
	}
	return "", fmt.Errorf("total value %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListTotalValues(_ context.Context) ([]core.TotalValueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TotalValueRecord(nil), s.values...), nil
}

func readBrokers(path string) []core.Broker {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Broker
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, currency, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		out = append(out, core.Broker{Name: strings.TrimSpace(name), Currency: strings.TrimSpace(currency)})
	}
	return out
}
