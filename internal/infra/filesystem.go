package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/gatebot/internal/config"
)

func GetWorkDir(path ...string) string {
	parts := append([]string{config.Get().DotPath}, path...)
	workDir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		log.Fatalln(err)
	}
	if err = os.MkdirAll(workDir, os.ModePerm); err != nil {
		log.Fatalln(err)
	}
	return workDir
}

func GetResourcesPath(path ...string) string {
	return filepath.Join(path...)
}
