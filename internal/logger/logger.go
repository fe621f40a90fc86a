package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Init 初始化全局日志，level 无法解析时退回 info
func Init(level string, json bool) {
	l := logrus.New()
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	logger = l
}

// Get 获取全局日志实例
func Get() *logrus.Logger {
	once.Do(func() {
		if logger == nil {
			Init("info", false)
		}
	})
	return logger
}

// Component 带组件字段的日志入口
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
