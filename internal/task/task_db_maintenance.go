package task

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/app"
)

// DbMaintenanceTask 数据库维护：sqlite 执行 PRAGMA optimize，其他数据库 ping
type DbMaintenanceTask struct {
	app  *app.App
	spec string
}

func (t *DbMaintenanceTask) Name() string {
	return "DbMaintenance"
}

func (t *DbMaintenanceTask) Spec() string {
	return t.spec
}

func (t *DbMaintenanceTask) Run(ctx context.Context) error {
	return t.app.Dao.Maintain(ctx)
}

// NewDbMaintenanceTask returns nil when task.db-maintenance is empty.
func NewDbMaintenanceTask(appContainer *app.App) (Task, error) {
	spec := appContainer.Config().Task.DBMaintenance
	if spec == "" {
		return nil, nil
	}
	if _, err := ParseSpec(spec); err != nil {
		return nil, err
	}
	return &DbMaintenanceTask{app: appContainer, spec: spec}, nil
}

func init() {
	RegisterWithApp(NewDbMaintenanceTask)
}
