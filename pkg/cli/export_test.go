package cli

import "github.com/m-mizutani/washp/pkg/model"

var (
	NewCommandForTest      = newCommand
	RenderResultForTest    = renderResult
	LoadServeConfigForTest = loadServeConfig
)

func ServeOptionsCountForTest(path string) (int, error) {
	sc, err := loadServeConfig(path)
	if err != nil {
		return 0, err
	}
	return len(sc.options()), nil
}

func SaveSessionForTest(path string, session *model.Session) error {
	cfg := &config{sessionFile: path}
	return cfg.saveSession(session)
}

func LoadSessionForTest(path string) (*model.Session, error) {
	cfg := &config{sessionFile: path}
	return cfg.loadSession()
}

func RemoveSessionForTest(path string) error {
	cfg := &config{sessionFile: path}
	return cfg.removeSession()
}
