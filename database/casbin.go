package database

import (
	"fmt"

	"chat-service/model"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
)

func Casbin() *casbin.Enforcer {
	// Initialize casbin adapter
	adapter, err := gormadapter.NewAdapterByDB(Postgres)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize casbin adapter: %v", err))
	}

	// Load model configuration file and policy store adapter
	e, err := casbin.NewEnforcer("config/restful_rbac_model.conf", adapter)
	if err != nil {
		panic(fmt.Sprintf("failed to create casbin enforcer: %v", err))
	}

	// Only the owner role may hit the all-conversations listing
	if hasPolicy, _ := e.HasPolicy(model.RoleOwner, "/v1/conversations/all", "(GET)"); !hasPolicy {
		e.AddPolicy(model.RoleOwner, "/v1/conversations/all", "(GET)")
	}

	e.LoadPolicy()
	return e
}
