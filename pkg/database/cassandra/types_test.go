package cassandra

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-cql/pkg/config"
	"github.com/redbco/redb-cql/pkg/cqltype"
)

func native(t gocql.Type) gocql.NativeType {
	return gocql.NewNativeType(4, t, "")
}

func TestTypeText(t *testing.T) {
	tests := []struct {
		name string
		info gocql.TypeInfo
		want string
	}{
		{"int", native(gocql.TypeInt), "int"},
		{"varchar", native(gocql.TypeVarchar), "varchar"},
		{"timeuuid", native(gocql.TypeTimeUUID), "timeuuid"},
		{"list", gocql.CollectionType{NativeType: native(gocql.TypeList), Elem: native(gocql.TypeBigInt)}, "list<bigint>"},
		{"set", gocql.CollectionType{NativeType: native(gocql.TypeSet), Elem: native(gocql.TypeUUID)}, "set<uuid>"},
		{"map", gocql.CollectionType{
			NativeType: native(gocql.TypeMap),
			Key:        native(gocql.TypeText),
			Elem:       gocql.CollectionType{NativeType: native(gocql.TypeList), Elem: native(gocql.TypeInt)},
		}, "map<text, list<int>>"},
		{"tuple", gocql.TupleTypeInfo{NativeType: native(gocql.TypeTuple), Elems: []gocql.TypeInfo{native(gocql.TypeInt), native(gocql.TypeBlob)}}, "tuple<int, blob>"},
		{"udt", gocql.UDTTypeInfo{NativeType: native(gocql.TypeUDT), KeySpace: "app", Name: "address"}, "address"},
		{"custom", gocql.NewNativeType(4, gocql.TypeCustom, "org.apache.cassandra.db.marshal.DynamicCompositeType"), "'org.apache.cassandra.db.marshal.DynamicCompositeType'"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeText(tt.info)
			assert.Equal(t, tt.want, got)
			if got != "" {
				_, err := cqltype.Parse(got)
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCluster(t *testing.T) {
	_, err := NewCluster(config.Profile{Name: "empty"}, "")
	require.Error(t, err)

	cluster, err := NewCluster(config.Profile{
		Name:            "prod",
		Hosts:           []string{"10.0.0.1", "10.0.0.2"},
		Username:        "app",
		DefaultKeyspace: "shop",
		Consistency:     "LOCAL_QUORUM",
		TimeoutSeconds:  3,
		SSL:             config.SSL{Enabled: true, CAPath: "/ca.pem", VerifyHost: true},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cluster.Hosts)
	assert.Equal(t, DefaultPort, cluster.Port)
	assert.Equal(t, gocql.LocalQuorum, cluster.Consistency)
	assert.Equal(t, "shop", cluster.Keyspace)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "app", Password: "secret"}, cluster.Authenticator)
	require.NotNil(t, cluster.SslOpts)
	assert.Equal(t, "/ca.pem", cluster.SslOpts.CaPath)
	assert.True(t, cluster.SslOpts.EnableHostVerification)
	assert.Equal(t, int64(3), int64(cluster.Timeout.Seconds()))

	cluster, err = NewCluster(config.Profile{Name: "local", Hosts: []string{"localhost"}, Port: 19042}, "")
	require.NoError(t, err)
	assert.Equal(t, 19042, cluster.Port)
	assert.Equal(t, gocql.Quorum, cluster.Consistency)
	assert.Nil(t, cluster.Authenticator)
	assert.Nil(t, cluster.SslOpts)

	_, err = NewCluster(config.Profile{Name: "bad", Hosts: []string{"h"}, Consistency: "MOST"}, "")
	assert.Error(t, err)
}
