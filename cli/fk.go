package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/config"
	"go.viam.com/kinetree/kinematics"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/spatialmath/backend"
	"go.viam.com/kinetree/utils"
)

// PoseJSON is the JSON form of a bone's world pose.
type PoseJSON struct {
	Name        string             `json:"name"`
	Translation config.Translation `json:"translation"`
	Orientation config.Orientation `json:"orientation"`
}

func newPoseJSON(name string, pose backend.Transformation) PoseJSON {
	p := spatial.Point(pose)
	aa := spatial.QuatToR4AA(spatial.QuaternionOf(pose))
	return PoseJSON{
		Name:        name,
		Translation: config.Translation{X: p.X, Y: p.Y, Z: p.Z},
		Orientation: config.Orientation{X: aa.RX, Y: aa.RY, Z: aa.RZ, TH: utils.RadToDeg(aa.Theta)},
	}
}

// ForwardKinematicsAction prints the world pose of every bone of a skeleton.
func ForwardKinematicsAction(c *cli.Context) error {
	logger := newLogger(c)
	skel, params, err := loadSkeleton(c, logger)
	if err != nil {
		return err
	}
	order, err := kinematics.ParseOrder(c.String(orderFlag))
	if err != nil {
		return err
	}
	exec, err := executor(c)
	if err != nil {
		return err
	}
	poses, err := kinematics.EvaluateParallel(c.Context, skel, params, exec, kinematics.WithOrder(order))
	if err != nil {
		return err
	}
	visit, err := traversal(skel, params, order)
	if err != nil {
		return err
	}

	names := skel.Names()
	if c.Bool(jsonFlag) {
		out := make([]PoseJSON, 0, len(visit))
		for _, id := range visit {
			pose, _ := poses.Get(id)
			out = append(out, newPoseJSON(names[id], pose))
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", data)
		return nil
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s (%s first)", skel.Name(), order))
	t.AppendHeader(table.Row{"Name", "Depth", "X", "Y", "Z", "Roll", "Pitch", "Yaw"})
	for _, id := range visit {
		pose, _ := poses.Get(id)
		depth, err := skel.Depth(id)
		if err != nil {
			return err
		}
		p := spatial.Point(pose)
		ori := spatial.QuatToEulerAngles(spatial.QuaternionOf(pose))
		t.AppendRow(table.Row{
			names[id], depth,
			fmt.Sprintf("%.4f", p.X), fmt.Sprintf("%.4f", p.Y), fmt.Sprintf("%.4f", p.Z),
			fmt.Sprintf("%.2f", utils.RadToDeg(ori.Roll)),
			fmt.Sprintf("%.2f", utils.RadToDeg(ori.Pitch)),
			fmt.Sprintf("%.2f", utils.RadToDeg(ori.Yaw)),
		})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// traversal lists the nodes of skel in the given order.
func traversal[T spatial.Transformation[T]](
	skel *kinematics.Skeleton[T], params kinematics.Assignment, order kinematics.Order,
) ([]arena.NodeID, error) {
	acc := kinematics.NewAccumulator(skel, params, kinematics.WithOrder(order))
	ids := make([]arena.NodeID, 0, skel.Len())
	for id := range acc.All() {
		ids = append(ids, id)
	}
	return ids, acc.Err()
}
