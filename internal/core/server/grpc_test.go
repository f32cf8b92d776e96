package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/parkwatch/internal/core/api"
	"github.com/solatis/parkwatch/internal/core/auth"
	"github.com/solatis/parkwatch/internal/core/config"
	"github.com/solatis/parkwatch/internal/core/db"
	"github.com/solatis/parkwatch/internal/core/store"
	"github.com/solatis/parkwatch/internal/types"
)

const (
	testObject   = "ws-100"
	testSecretID = "0123456789abcdef0123456789abcdef"
)

type harness struct {
	conn   *grpc.ClientConn
	client *api.SensorAPIClient
	key    string
	srv    *GRPCServer
}

func setupHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "sensor.db"), db.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.MigrateUp(ctx, database, nil))
	queries, err := db.LoadQueries(database)
	require.NoError(t, err)

	st, err := store.New(queries, nil)
	require.NoError(t, err)
	require.NoError(t, st.ReplaceProfiles(ctx, testObject, []types.DeviceProfile{
		{FieldKey: "humidity", FieldType: "Float", Description: "습도"},
	}))
	_, err = st.ReplaceAllConditions(ctx, testObject, []types.EventCondition{{
		ObjectID:      testObject,
		FieldKey:      "humidity",
		Level:         types.LevelCaution,
		ConditionType: types.ConditionTypeRange,
		Operator:      types.OperatorBetween,
		LeftValue:     types.Float(70),
		RightValue:    types.Float(85),
		Activate:      true,
	}})
	require.NoError(t, err)

	authenticator, err := auth.NewAuthenticator(map[string][]byte{
		testSecretID: []byte("0123456789abcdef0123456789abcdef"),
	}, queries, nil)
	require.NoError(t, err)
	issued, err := authenticator.Issue(ctx, "park-7", "test")
	require.NoError(t, err)

	cfg := config.Default().SensorAPI
	service, err := api.NewSensorAPIService(st, st, &cfg, nil)
	require.NoError(t, err)

	srv, err := NewGRPCServer(&cfg, service, authenticator, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{conn: conn, client: api.NewSensorAPIClient(conn), key: issued.Key, srv: srv}
}

func (h *harness) authed(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "x-api-key", h.key)
}

func TestNewGRPCServer_NilDeps(t *testing.T) {
	cfg := config.Default().SensorAPI
	_, err := NewGRPCServer(nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(&cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestEvaluateReadings_OverGRPC(t *testing.T) {
	h := setupHarness(t)

	req, err := structpb.NewStruct(map[string]interface{}{
		"objectId": testObject,
		"readings": map[string]interface{}{"humidity": "72"},
	})
	require.NoError(t, err)

	resp, err := h.client.EvaluateReadings(h.authed(context.Background()), req)
	require.NoError(t, err)

	levels := resp.AsMap()["levels"].([]interface{})
	require.Len(t, levels, 1)
	assert.Equal(t, string(types.LevelCaution), levels[0].(map[string]interface{})["level"])
}

func TestEvaluateReadings_RequiresKey(t *testing.T) {
	h := setupHarness(t)

	req, err := structpb.NewStruct(map[string]interface{}{"objectId": testObject})
	require.NoError(t, err)

	_, err = h.client.EvaluateReadings(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSyncConditions_OverGRPC(t *testing.T) {
	h := setupHarness(t)

	req, err := structpb.NewStruct(map[string]interface{}{"objectId": testObject})
	require.NoError(t, err)

	resp, err := h.client.SyncConditions(h.authed(context.Background()), req)
	require.NoError(t, err)
	m := resp.AsMap()
	assert.NotEmpty(t, m["etag"])
	assert.Len(t, m["conditions"], 1)
}

func TestHealthCheck_NoKey(t *testing.T) {
	h := setupHarness(t)

	resp, err := grpc_health_v1.NewHealthClient(h.conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestTimeoutInterceptor(t *testing.T) {
	intercept := timeoutInterceptor(10 * time.Millisecond)
	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 10*time.Millisecond)
			return nil, nil
		})
	assert.NoError(t, err)
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := recoveryInterceptor(zap.NewNop())
	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			panic("boom")
		})
	assert.Equal(t, codes.Internal, status.Code(err))
}
