// Package config defines the settings used by the radio alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Every field can be overridden from the environment with the RADIO_ALARM_
// prefix, e.g. RADIO_ALARM_STORAGE_DRIVER=sqlite.
package config
