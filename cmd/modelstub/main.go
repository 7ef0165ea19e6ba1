// modelstub serves keyword-lexicon logits over the same gRPC and HTTP
// interfaces as the real model sidecar, for local runs without the model.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
)

func main() {
	grpcAddr := pflag.String("grpc-addr", ":50051", "gRPC listen address (empty to disable)")
	httpAddr := pflag.String("http-addr", ":8000", "HTTP listen address (empty to disable)")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := classifier.LogitsFunc(lexiconLogits)

	if *grpcAddr != "" {
		lis, err := net.Listen("tcp", *grpcAddr)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}
		s := grpc.NewServer()
		classifier.RegisterLogitsServer(s, model)
		go func() {
			<-ctx.Done()
			s.GracefulStop()
		}()
		go func() {
			log.Printf("✅ gRPC model stub listening on %s", *grpcAddr)
			if err := s.Serve(lis); err != nil {
				log.Printf("🚒 gRPC server stopped: %v", err)
			}
		}()
	}

	if *httpAddr != "" {
		srv := &http.Server{Addr: *httpAddr, Handler: classifier.HTTPHandler(model)}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		go func() {
			log.Printf("✅ HTTP model stub listening on %s", *httpAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("🚒 HTTP server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("model stub shutting down")
}
