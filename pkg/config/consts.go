package config

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
