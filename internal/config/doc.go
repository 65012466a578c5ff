// Package config loads the service configuration.
//
// # Configuration Sources
//
// Values are resolved in this order, later sources winning:
//
//	1. Default() values
//	2. a YAML file: $LFE_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//	3. environment variables
//
// # Environment Variables
//
// Variables are named LFE_<SECTION>_<FIELD>:
//
//	LFE_SERVER_PORT=8000
//	LFE_DATA_FILE=/data/cvas_data.json
//	LFE_FEATURES_MAX_DEPTH=2
//	LFE_FEATURES_AGGREGATIONS=mean,count,mode
//	LFE_LOGGING_LEVEL=debug
//
// List values are comma separated. A variable without the prefix is used
// when the prefixed one is unset, so PORT also sets the server port.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
