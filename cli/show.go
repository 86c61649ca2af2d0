package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/kinetree/config"
)

// ShowAction prints the bones of a skeleton as a table.
func ShowAction(c *cli.Context) error {
	skel, _, err := loadSkeleton(c, newLogger(c))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", skel.String())
	return nil
}

// SchemaAction prints the JSON schema of skeleton files.
func SchemaAction(c *cli.Context) error {
	out, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}
