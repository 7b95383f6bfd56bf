package git

import gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"

// EngineVersion reports the engine version linked into the binary.
func EngineVersion() (string, error) {
	return gitbackend.Version()
}

func MinEngineVersion() string {
	return gitbackend.MinVersion()
}
