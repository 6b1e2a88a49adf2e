//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/quizconv/internal/api"
	"github.com/victornm/quizconv/internal/decode"
	"github.com/victornm/quizconv/internal/domain"
)

const (
	grpcAddr = "localhost:8081"
	httpAddr = "http://localhost:8080"
)

func TestConvert(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		cc = makeConverterClient(t)
		wg = new(sync.WaitGroup)
	)

	// Prepare Redis subscriber
	subscribeConversions(t, makeRedis(t), wg)

	topics, questions := quizFiles(3)

	// Convert the same files into every format concurrently
	var eg errgroup.Group
	for _, f := range []string{"js", "xml", "json", "yaml", "toml"} {
		eg.Go(func() error {
			req, err := structpb.NewStruct(map[string]any{
				"topics":    base64.StdEncoding.EncodeToString(topics),
				"questions": base64.StdEncoding.EncodeToString(questions),
				"format":    f,
				"sort":      true,
			})
			if err != nil {
				return err
			}

			resp, err := cc.Convert(ctx, req)
			if err != nil {
				return fmt.Errorf("convert to %s: %w", f, err)
			}

			fields := resp.GetFields()
			t.Logf("Converted to %s: catalog=%s cached=%t",
				f, fields["catalog_id"].GetStringValue(), fields["cached"].GetBoolValue())
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	// The same request again over HTTP should hit the cache
	{
		body, contentType := multipartBody(t, topics, questions, map[string]string{"format": "js", "sort": "true"})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, httpAddr+"/v1/conversions", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", contentType)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		out, _ := io.ReadAll(resp.Body)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(out))
		t.Logf("HTTP conversion: catalog=%s cache=%s",
			resp.Header.Get(api.HeaderCatalogID), resp.Header.Get(api.HeaderCache))
	}

	time.Sleep(2 * time.Second)
	cancel()
	wg.Wait()
}

func quizFiles(n int) (topics, questions []byte) {
	str8 := func(b *bytes.Buffer, s string) {
		b.WriteByte(byte(len(s)))
		b.WriteString(s)
	}
	str16 := func(b *bytes.Buffer, s string) {
		b.Write(binary.BigEndian.AppendUint16(nil, uint16(len(s))))
		b.WriteString(s)
	}

	var tb, qb bytes.Buffer
	str8(&tb, "Demo Themen")
	str8(&tb, decode.TopicFileVersion)
	str8(&qb, "Demo Fragen")
	str8(&qb, decode.QuestionFileVersion)
	qb.Write([]byte{0, 0})

	for i := n; i > 0; i-- {
		tb.Write([]byte{0, 0, 0, 0, 0, byte(i)})
		str8(&tb, fmt.Sprintf("Thema %d", i))

		var h [23]byte
		h[3] = byte(i)
		h[7] = byte(i)
		h[15] = byte(i)
		h[18] = 1 << (i % 4)
		qb.Write(h[:])
		str16(&qb, fmt.Sprintf("Frage %d", i))
		for _, a := range []string{"A", "B", "C", "D"} {
			str16(&qb, a)
		}
		qb.Write([]byte{0, 0, 0, 0})
	}

	return tb.Bytes(), qb.Bytes()
}

func multipartBody(t *testing.T, topics, questions []byte, fields map[string]string) (io.Reader, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, b := range map[string][]byte{"topics": topics, "questions": questions} {
		fw, err := mw.CreateFormFile(name, name+".dat")
		require.NoError(t, err)
		_, err = fw.Write(b)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func makeConverterClient(t *testing.T) *api.ConverterClient {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return api.NewConverterClient(conn)
}

func subscribeConversions(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, api.ConversionsChannel("local:pubsub"))
	go func() {
		defer wg.Done()

		for msg := range sub {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			switch n.Event {
			case domain.EventNameQuizConverted:
				var c api.Conversion
				if err := json.Unmarshal(n.Data, &c); err != nil {
					t.Logf("unmarshal conversion: %v", err)
					continue
				}

				t.Logf("Notified: catalog=%s format=%s questions=%d", c.CatalogID, c.Format, c.QuestionCount)
			}
		}
	}()
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, channel string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	sub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() {
		cancel()
		sub.Close()
	})

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}
