package trafficos

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kainat5008/Traffic-System-OS/banker"
)

// ResourceSpec declares one resource class: a named exclusive lock with a
// fixed number of interchangeable units.
type ResourceSpec struct {
	Name  string `yaml:"name"`
	Total int    `yaml:"total"`
}

// ClientSpec declares one client: a stable name and the most units of each
// resource class it will ever hold simultaneously. Maximum is positional,
// matching the roster's resource order.
type ClientSpec struct {
	Name    string `yaml:"name"`
	Maximum []int  `yaml:"maximum"`
}

// Roster is the fixed startup-known set of resource classes and clients.
// Positions assign the dense indices the ledger works with; domain names
// stay at this boundary and never reach the ledger.
//
// The roster is read-only after New consumes it.
type Roster struct {
	Resources []ResourceSpec `yaml:"resources"`
	Clients   []ClientSpec   `yaml:"clients"`
}

// LoadRoster reads and validates a YAML roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes and validates YAML roster data.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// DefaultRoster returns the traffic system's own roster: two binary lock
// classes (the lane queues and the active-vehicle table) and the eight
// actors that contend for them, each allowed one unit of each class.
func DefaultRoster() *Roster {
	clients := []string{
		"traffic-light-controller",
		"spawn-vehicles",
		"speed-manager",
		"out-of-order",
		"mock-time",
		"challan-generator",
		"stripe-payment",
		"user-portal",
	}

	r := &Roster{
		Resources: []ResourceSpec{
			{Name: "lane", Total: 1},
			{Name: "active-vehicles", Total: 1},
		},
	}
	for _, name := range clients {
		r.Clients = append(r.Clients, ClientSpec{Name: name, Maximum: []int{1, 1}})
	}
	return r
}

// Validate checks the roster for structural errors: empty sections,
// duplicate or blank names, non-positive totals, maxima with the wrong
// dimension or exceeding a class total. A bad roster aborts startup.
func (r *Roster) Validate() error {
	if len(r.Resources) == 0 || len(r.Clients) == 0 {
		return ErrEmptyRoster
	}

	seen := make(map[string]struct{}, len(r.Resources)+len(r.Clients))
	for i, res := range r.Resources {
		if res.Name == "" {
			return fmt.Errorf("resource %d: name required", i)
		}
		if _, dup := seen[res.Name]; dup {
			return fmt.Errorf("resource %q: %w", res.Name, ErrDuplicateName)
		}
		seen[res.Name] = struct{}{}
		if res.Total <= 0 {
			return fmt.Errorf("resource %q: total must be positive, got %d", res.Name, res.Total)
		}
	}

	clientSeen := make(map[string]struct{}, len(r.Clients))
	for i, c := range r.Clients {
		if c.Name == "" {
			return fmt.Errorf("client %d: name required", i)
		}
		if _, dup := clientSeen[c.Name]; dup {
			return fmt.Errorf("client %q: %w", c.Name, ErrDuplicateName)
		}
		clientSeen[c.Name] = struct{}{}
		if len(c.Maximum) != len(r.Resources) {
			return fmt.Errorf("client %q: maximum has %d entries, want %d: %w",
				c.Name, len(c.Maximum), len(r.Resources), banker.ErrDimensionMismatch)
		}
		for rIdx, m := range c.Maximum {
			if m < 0 {
				return fmt.Errorf("client %q class %q: %w", c.Name, r.Resources[rIdx].Name, banker.ErrNegativeUnits)
			}
			if m > r.Resources[rIdx].Total {
				return fmt.Errorf("client %q class %q: max %d of %d: %w",
					c.Name, r.Resources[rIdx].Name, m, r.Resources[rIdx].Total, banker.ErrDemandExceedsTotal)
			}
		}
	}
	return nil
}

// Totals returns the per-class instance counts in roster order.
func (r *Roster) Totals() []int {
	totals := make([]int, len(r.Resources))
	for i, res := range r.Resources {
		totals[i] = res.Total
	}
	return totals
}

// ClientID resolves a client name to its dense index.
func (r *Roster) ClientID(name string) (int, error) {
	for i, c := range r.Clients {
		if c.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("client %q: %w", name, ErrUnknownName)
}

// ResourceClass resolves a resource class name to its dense index.
func (r *Roster) ResourceClass(name string) (int, error) {
	for i, res := range r.Resources {
		if res.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("resource %q: %w", name, ErrUnknownName)
}

// ClientName returns the name for a client index, or a numeric placeholder
// for out-of-range indices.
func (r *Roster) ClientName(id int) string {
	if id < 0 || id >= len(r.Clients) {
		return fmt.Sprintf("client-%d", id)
	}
	return r.Clients[id].Name
}

// ResourceName returns the name for a class index, or a numeric placeholder
// for out-of-range indices.
func (r *Roster) ResourceName(class int) string {
	if class < 0 || class >= len(r.Resources) {
		return fmt.Sprintf("class-%d", class)
	}
	return r.Resources[class].Name
}
