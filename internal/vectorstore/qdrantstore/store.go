package qdrantstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Store is a VectorStore backed by Qdrant, one collection per document
// category (regulation, curriculum, ...).
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	logger      arbor.ILogger
}

var _ interfaces.VectorStore = (*Store)(nil)

// New dials addr (host:port gRPC) and returns a Store.
func New(addr string, logger arbor.ILogger) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		logger:      logger,
	}, nil
}

// GetOrCreateCollection creates the named collection if it doesn't exist.
func (s *Store) GetOrCreateCollection(ctx context.Context, collection string, dimension int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	s.logger.Info().Str("collection", collection).Int("dimension", dimension).Msg("created qdrant collection")
	return nil
}

// Upsert inserts or replaces points in collection.
func (s *Store) Upsert(ctx context.Context, collection string, pts []interfaces.VectorPoint) error {
	if len(pts) == 0 {
		return nil
	}

	qpoints := make([]*pb.PointStruct, len(pts))
	for i, p := range pts {
		payload := toPayload(p.Text, p.Metadata)
		qpoints[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: p.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qpoints,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(pts), collection, err)
	}
	return nil
}

// DeleteByFilter removes points in collection whose payload matches every
// key/value pair in filter.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	if len(filter) == 0 {
		return nil
	}

	must := make([]*pb.Condition, 0, len(filter))
	for k, v := range filter {
		must = append(must, fieldMatch(k, v))
	}

	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{Must: must},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete by filter in %s: %w", collection, err)
	}
	return nil
}

// Search performs k-NN similarity search against collection.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int) ([]interfaces.ScoredPoint, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	results := make([]interfaces.ScoredPoint, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		text, meta := fromPayload(r.GetPayload())
		results[i] = interfaces.ScoredPoint{
			ID:       r.GetId().GetUuid(),
			Text:     text,
			Metadata: meta,
			Score:    float64(r.GetScore()),
		}
	}
	return results, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func toPayload(text string, metadata map[string]interface{}) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(metadata)+1)
	payload["text"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: text}}
	for k, val := range metadata {
		switch tv := val.(type) {
		case string:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
		case int:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
		case int64:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
		case float64:
			payload[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
		case bool:
			payload[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
		default:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
		}
	}
	return payload
}

func fromPayload(payload map[string]*pb.Value) (string, map[string]interface{}) {
	meta := make(map[string]interface{}, len(payload))
	text := ""
	for k, v := range payload {
		switch k {
		case "text":
			text = v.GetStringValue()
		default:
			meta[k] = valueToInterface(v)
		}
	}
	return text, meta
}

func valueToInterface(v *pb.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
			},
		},
	}
}
