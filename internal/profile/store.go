package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one stored user profile as declared in profiles.yaml.
type Profile struct {
	Occupation string   `yaml:"occupation"`
	Areas      []string `yaml:"areas"`
	Interests  []string `yaml:"interests"`
}

// profilesFile is the on-disk structure of profiles.yaml.
type profilesFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Store holds the stored user profiles loaded at startup. Read-only after
// loading, so safe for concurrent lookups.
type Store struct {
	profiles map[string]Profile
}

// LoadStore reads profiles.yaml from path. A missing file is not an error:
// classification works without stored profiles (callers can still pass
// per-request overrides), so an empty store is returned.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{profiles: map[string]Profile{}}, nil
		}
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file %s: %w", path, err)
	}
	if file.Profiles == nil {
		file.Profiles = map[string]Profile{}
	}

	return &Store{profiles: file.Profiles}, nil
}

// Lookup returns the stored profile for userID. An unknown user yields a
// zero profile: the pipeline degrades to context-free classification rather
// than failing the request.
func (s *Store) Lookup(userID string) Profile {
	if s == nil {
		return Profile{}
	}
	return s.profiles[userID]
}

// Len returns the number of stored profiles.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}
