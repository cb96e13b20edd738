// Package config holds runtime configuration for Gramflow.
package config
