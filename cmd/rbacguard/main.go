// Command rbacguard is a CLI around the rbacguard authorization engine: it
// loads a model and policy source from config and evaluates requests against
// them.
package main

import "github.com/sentinelgate/rbacguard/cmd/rbacguard/cmd"

func main() {
	cmd.Execute()
}
