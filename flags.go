package main

import (
	"time"

	"airbnk-to-mqtt/adapters"
	"airbnk-to-mqtt/application"

	"github.com/urfave/cli/v2"
)

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagCredentialsFile = &cli.StringFlag{
	Name:     "credentials-file",
	Usage:    "yaml file holding userId, token and email",
	EnvVars:  []string{"AIRBNK_CREDENTIALS_FILE"},
	Value:    "airbnk-credentials.yaml",
	Required: false,
}

var FlagAirbnkURL = &cli.StringFlag{
	Name:     "airbnk-url",
	EnvVars:  []string{"AIRBNK_URL"},
	Value:    adapters.AirbnkCloudURL,
	Required: false,
}

var FlagRequestTimeout = &cli.DurationFlag{
	Name:     "request-timeout",
	EnvVars:  []string{"AIRBNK_REQUEST_TIMEOUT"},
	Value:    30 * time.Second,
	Required: false,
}

var FlagLockMarkMapping = &cli.StringFlag{
	Name:     "lock-mark-mapping",
	Usage:    "which mark value opens the lock, one of: [open1-close2, open2-close1]",
	EnvVars:  []string{"AIRBNK_LOCK_MARK_MAPPING"},
	Required: true,
}

var FlagExcludedTypePrefixes = &cli.StringSliceFlag{
	Name:     "excluded-type-prefix",
	Usage:    "device type prefixes never exposed as locks",
	EnvVars:  []string{"AIRBNK_EXCLUDED_TYPE_PREFIXES"},
	Value:    cli.NewStringSlice(application.DefaultExcludedTypePrefixes...),
	Required: false,
}

var FlagUpdateInterval = &cli.DurationFlag{
	Name:     "update-interval",
	EnvVars:  []string{"AIRBNK_UPDATE_INTERVAL"},
	Value:    application.MinTimeBetweenUpdates,
	Required: false,
}

var FlagEmail = &cli.StringFlag{
	Name:     "email",
	Usage:    "airbnk account email",
	EnvVars:  []string{"AIRBNK_EMAIL"},
	Required: true,
}

var FlagCode = &cli.StringFlag{
	Name:     "code",
	Usage:    "verification code received by email",
	Required: true,
}

var FlagForce = &cli.BoolFlag{
	Name:  "force",
	Usage: "overwrite existing credentials",
}

var FlagMQTTUrl = &cli.StringFlag{
	Name:     "mqtt-url",
	Usage:    "tcp://broker:port",
	EnvVars:  []string{"MQTT_URL"},
	Required: true,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Value:    "airbnk-to-mqtt",
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagMQTTTopic = &cli.StringFlag{
	Name:     "mqtt-topic",
	Usage:    "topic prefix for lock entities",
	EnvVars:  []string{"MQTT_TOPIC"},
	Value:    application.DefaultTopicPrefix,
	Required: false,
}

var FlagHTTPAddr = &cli.StringFlag{
	Name:     "http-addr",
	Usage:    "listen address of the local api, empty disables it",
	EnvVars:  []string{"HTTP_ADDR"},
	Value:    ":8080",
	Required: false,
}
