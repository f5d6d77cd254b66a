package config

type Config struct {
	TokenKey     string `yaml:"token_key"`
	UserIDKey    string `yaml:"user_id_key"`
	RoleKey      string `yaml:"role_key"`
	RegisterRole string `yaml:"register_role"`
}
