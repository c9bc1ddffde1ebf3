package httpservice

import (
	"fmt"
	"net"
)

type Config struct {
	Port      uint32
	AdminUser string
	AdminPass string
}

func (c Config) Validate() error {
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	defer lis.Close()

	if (len(c.AdminUser) > 0) != (len(c.AdminPass) > 0) {
		return fmt.Errorf("admin user and password must be set together")
	}
	return nil
}

func (c Config) withAdminAuth() bool {
	return len(c.AdminUser) > 0
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}
