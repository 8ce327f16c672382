// Package config loads the fanc service configuration.
//
// Configuration is read from YAML, completed with defaults, optionally
// overridden from FANC_* environment variables and then validated. All
// validation problems are reported together:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("fanc.yaml")
//	if err != nil {
//		var verr config.ValidationError
//		if errors.As(err, &verr) {
//			for _, fe := range verr.Errors {
//				fmt.Println(fe.Field, fe.Message)
//			}
//		}
//		return err
//	}
//
// There is no package-level configuration; callers pass *Config to the
// components that need it.
package config
