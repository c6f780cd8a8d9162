package profile

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultProfile = "default"
)

var ErrProfileNotFound = errors.New("profile not found")

// Manager reads the profiles of a loaded configuration file. Each top level
// key of the file is a profile.
type Manager interface {
	GetProfiles() []string
	GetProfile(name string) (map[string]any, error)
}

type profileManager struct {
	config *viper.Viper
}

// Empty type to represent the _type_ Manager. Genesis is to support a key in a Context
type Key struct{}

// Global instance of the ProfileManagerKey type
var ProfileManagerKey = Key{}

// GetProfiles returns the sorted profile names.
func (v *profileManager) GetProfiles() []string {
	var names []string
	for _, key := range v.config.AllKeys() {
		top := strings.Split(key, ".")[0]
		if !slices.Contains(names, top) {
			names = append(names, top)
		}
	}
	slices.Sort(names)
	return names
}

func (v *profileManager) GetProfile(name string) (map[string]any, error) {
	if !v.config.IsSet(name) {
		return nil, ErrProfileNotFound
	}
	return v.config.GetStringMap(name), nil
}

func NewManager(config *viper.Viper) Manager {
	if config == nil {
		config = viper.New()
	}
	return &profileManager{
		config: config,
	}
}
