package handlers

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/gatebot/resources"
)

var textsState = struct {
	once     sync.Once
	messages map[string]string
}{
	messages: make(map[string]string),
}

func loadTexts() {
	raw, err := resources.FS.ReadFile("messages/en.yml")
	if err != nil {
		log.WithError(err).Errorln("cant load messages")
		return
	}
	messages := make(map[string]string)
	if err := yaml.Unmarshal(raw, &messages); err != nil {
		log.WithError(err).Errorln("cant unmarshal messages")
		return
	}
	textsState.messages = messages
}

// Text returns the canned reply for the key, or the key itself when the
// bundle misses it so a broken bundle stays visible instead of silent.
func Text(key string) string {
	textsState.once.Do(loadTexts)
	if res, ok := textsState.messages[key]; ok {
		return res
	}
	log.Tracef(`no message for key %q`, key)
	return key
}

func Textf(key string, args ...any) string {
	return fmt.Sprintf(Text(key), args...)
}
