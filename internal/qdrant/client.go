package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"todoscan/internal/config"
)

const (
	defaultHost = "localhost"
	defaultPort = 6334
)

// Client wraps the Qdrant gRPC points and collections services.
type Client struct {
	client      qdrant.PointsClient
	collections qdrant.CollectionsClient
	grpcConn    *grpc.ClientConn
}

func NewClient(cfg config.Qdrant) (*Client, error) {
	host, port, err := parseQdrantAddress(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url %q: %w", cfg.URL, err)
	}

	qcfg := &qdrant.Config{
		Host: host,
		Port: port,
	}
	if cfg.APIKey != "" {
		qcfg.APIKey = cfg.APIKey
	}

	grpcClient, err := qdrant.NewGrpcClient(qcfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:      grpcClient.Points(),
		collections: grpcClient.Collections(),
		grpcConn:    grpcClient.Conn(),
	}, nil
}

// parseQdrantAddress accepts "host", "host:port" or a URL. The gRPC port
// defaults to 6334.
func parseQdrantAddress(raw string) (string, int, error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return defaultHost, defaultPort, nil
	}

	if strings.Contains(endpoint, "://") {
		parsed, err := neturl.Parse(endpoint)
		if err != nil {
			return "", 0, err
		}
		if parsed.Host == "" {
			return defaultHost, defaultPort, nil
		}
		endpoint = parsed.Host
	}

	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			return endpoint, defaultPort, nil
		}
		return "", 0, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	if host == "" {
		host = defaultHost
	}

	return host, port, nil
}

func (c *Client) Close() error {
	return c.grpcConn.Close()
}

// EnsureCollection creates the collection, recreating it when the existing
// vector size differs. It reports whether the collection was (re)created.
func (c *Client) EnsureCollection(ctx context.Context, name string, vectorSize uint64) (bool, error) {
	info, err := c.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err == nil {
		params := info.GetResult().GetConfig().GetParams()
		if params == nil || params.GetVectorsConfig().GetParams().GetSize() == vectorSize {
			return false, nil
		}
		if _, err := c.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name}); err != nil {
			return false, fmt.Errorf("failed to delete collection: %w", err)
		}
	}

	_, err = c.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to create collection: %w", err)
	}
	return true, nil
}

// DeleteCollection removes the entire collection and all its points.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.collections.Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: name,
	})
	return err
}

func (c *Client) Upsert(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	wait := true
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           &wait,
	})
	return err
}

func (c *Client) Search(ctx context.Context, collectionName string, vector []float32, limit uint64) ([]*qdrant.ScoredPoint, error) {
	resp, err := c.client.Search(ctx, &qdrant.SearchPoints{
		CollectionName: collectionName,
		Vector:         vector,
		Limit:          limit,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Scroll pages through points with their payloads. A nil next offset means
// the last page was returned.
func (c *Client) Scroll(ctx context.Context, collectionName string, limit uint32, offset *qdrant.PointId) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error) {
	resp, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collectionName,
		Limit:          &limit,
		Offset:         offset,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	})
	if err != nil {
		return nil, nil, err
	}
	return resp.Result, resp.NextPageOffset, nil
}

// DeleteByKeyword deletes every point whose payload key equals value.
func (c *Client) DeleteByKeyword(ctx context.Context, collectionName, key, value string) error {
	wait := true
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: KeywordFilter(key, value),
			},
		},
	})
	return err
}

// IsNotFound reports whether err is Qdrant's answer for a collection that
// does not exist.
func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// KeywordFilter matches points whose payload key equals value.
func KeywordFilter(key, value string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: key,
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{
								Keyword: value,
							},
						},
					},
				},
			},
		},
	}
}

// NumericPoint builds a point with a numeric id, a dense vector and payload.
func NumericPoint(id uint64, vector []float32, payload map[string]interface{}) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Num{Num: id},
		},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{Data: vector},
			},
		},
		Payload: MapToPayload(payload),
	}
}

func PayloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range payload {
		result[k] = valueToInterface(v)
	}
	return result
}

func valueToInterface(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return fmt.Sprintf("%v", v)
	}
}

func MapToPayload(m map[string]interface{}) map[string]*qdrant.Value {
	result := make(map[string]*qdrant.Value)
	for k, v := range m {
		result[k] = interfaceToValue(v)
	}
	return result
}

func interfaceToValue(i interface{}) *qdrant.Value {
	switch v := i.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}
