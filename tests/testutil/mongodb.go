package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoStartupTimeout = 120 * time.Second
	mongoCleanupTimeout = 10 * time.Second
	mongoPingWait       = 5 * time.Second
	mongoMemoryLimit    = 512 << 20

	// имя базы в MongoDB ограничено 63 байтами
	maxTestNameLength = 40
)

var mongoContainer = &sharedContainer{
	port:  "27017/tcp",
	reuse: true,
	request: testcontainers.ContainerRequest{
		Image:        "mongo:8",
		Name:         "statuswatch-test-mongodb", // reuse находит контейнер по имени
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "admin",
			"MONGO_INITDB_ROOT_PASSWORD": "admin123",
		},
		HostConfigModifier: limitMemory(mongoMemoryLimit),
		WaitingFor:         wait.ForLog("Waiting for connections").WithStartupTimeout(mongoStartupTimeout),
	},
}

// SetupTestMongoDB returns a per-test database in the shared MongoDB
// container, dropped on cleanup. Skipped under -short.
func SetupTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	requireDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), mongoStartupTimeout)
	defer cancel()

	addr, err := mongoContainer.address(ctx)
	require.NoError(t, err, "shared mongodb container")

	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://admin:admin123@" + addr))
	require.NoError(t, err, "connect mongodb")

	// контейнер из reuse может еще подниматься
	require.EventuallyWithT(t, func(c *assert.CollectT) {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		defer pingCancel()
		assert.NoError(c, client.Ping(pingCtx, nil))
	}, mongoPingWait, 250*time.Millisecond, "ping mongodb")

	db := client.Database(testDBName(t.Name()))
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), mongoCleanupTimeout)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})
	return db
}

func testDBName(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(testName)
	if len(name) > maxTestNameLength {
		sum := sha256.Sum256([]byte(name))
		name = name[:20] + "_" + hex.EncodeToString(sum[:])[:12]
	}
	return "statuswatch_test_" + name
}
