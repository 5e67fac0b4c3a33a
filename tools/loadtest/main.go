package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	server := flag.String("server", "http://localhost:5000", "Server base URL")
	clients := flag.Int("clients", 10, "Number of concurrent clients")
	meeting := flag.String("meeting", "", "Meeting id to join (created when empty)")
	messages := flag.Int("messages", 10, "Transcription events per client")
	flag.Parse()

	id := *meeting
	if id == "" {
		var err error
		if id, err = createMeeting(*server); err != nil {
			log.Fatalf("create meeting: %v", err)
		}
	}
	wsURL := "ws" + strings.TrimPrefix(*server, "http") + "/ws"

	log.Printf("Load test: %d clients, %d messages each, meeting=%s", *clients, *messages, id)

	var (
		connected int64
		joined    int64
		sent      int64
		received  int64
		errors    int64
		latencies []time.Duration
		latencyMu sync.Mutex
		wg        sync.WaitGroup
	)

	start := time.Now()

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				atomic.AddInt64(&errors, 1)
				log.Printf("client %d: dial error: %v", n, err)
				return
			}
			defer conn.Close()
			atomic.AddInt64(&connected, 1)

			// Read goroutine.
			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						return
					}
					var env envelope
					if json.Unmarshal(data, &env) != nil {
						continue
					}
					switch env.Event {
					case "meeting_joined":
						atomic.AddInt64(&joined, 1)
					case "transcription_received", "audio_received":
						atomic.AddInt64(&received, 1)
					case "error":
						atomic.AddInt64(&errors, 1)
					}
				}
			}()

			user := fmt.Sprintf("user_%d", n)
			send(conn, "join_meeting", map[string]any{"meeting_id": id, "username": user})
			time.Sleep(100 * time.Millisecond)

			for j := 0; j < *messages; j++ {
				sendTime := time.Now()
				err := send(conn, "transcription", map[string]any{
					"meeting_id": id,
					"text":       fmt.Sprintf("msg %d from %s", j, user),
					"is_final":   j == *messages-1,
					"timestamp":  sendTime.UnixMilli(),
				})
				if err != nil {
					atomic.AddInt64(&errors, 1)
					return
				}
				atomic.AddInt64(&sent, 1)
				lat := time.Since(sendTime)
				latencyMu.Lock()
				latencies = append(latencies, lat)
				latencyMu.Unlock()
				time.Sleep(10 * time.Millisecond)
			}

			// Wait a bit for remaining messages.
			time.Sleep(500 * time.Millisecond)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Clients:     %d connected, %d joined\n", connected, joined)
	fmt.Printf("Sent:        %d events\n", sent)
	fmt.Printf("Received:    %d events (expected %d)\n", received, sent*int64(*clients-1))
	fmt.Printf("Errors:      %d\n", errors)
	if len(latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f events/sec\n", float64(sent)/elapsed.Seconds())
}

func createMeeting(server string) (string, error) {
	resp, err := http.Post(server+"/api/create-meeting", "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		ID      string `json:"meeting_id"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if !body.Success {
		return "", fmt.Errorf("server: %s", body.Error)
	}
	return body.ID, nil
}

func send(conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
