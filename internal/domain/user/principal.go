package user

// Principal is the authenticated caller identity resolved by the platform's
// identity system. Only the manager id matters to the engine.
type Principal struct {
	ManagerID   string
	DisplayName string
}
