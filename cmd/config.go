package main

import "time"

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,default=1024"`
	SessionBufferSize int           `env:"SESSION_BUFFER_SIZE,default=64"`
	LimitPosts        *int          `env:"LIMIT_POSTS"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ReportInterval    time.Duration `env:"REPORT_INTERVAL,default=30s"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	JwtSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CensoredChar      string        `env:"CENSORED_CHARACTER,default=*"`
}
