// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "tinybeans-go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/tinybeans.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("tinybeans.username", "")
	viper.SetDefault("tinybeans.password", "")
	viper.SetDefault("tinybeans.apibase", DefaultAPIBase)
	viper.SetDefault("tinybeans.fetchsize", 200)
	viper.SetDefault("tinybeans.includedeleted", false)
	viper.SetDefault("tinybeans.timeout", 45*time.Second)
	viper.SetDefault("tinybeans.cachettl", 5*time.Minute)

	viper.SetDefault("upload.debug", false)
	viper.SetDefault("upload.bucket", "tinybeans-remote-upload-prod")
	viper.SetDefault("upload.cognitoregion", "us-east-1")
	viper.SetDefault("upload.s3region", "us-west-2")
	viper.SetDefault("upload.partsizemb", 5)

	viper.SetDefault("export.debug", false)
	viper.SetDefault("export.path", "export/")
	viper.SetDefault("export.database", "journal.db")
	viper.SetDefault("export.media", true)
}
