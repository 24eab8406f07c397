package fx

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/amityadav/trendfinder/internal/config"
	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/amityadav/trendfinder/internal/middleware"
	"github.com/amityadav/trendfinder/internal/server"
	"github.com/amityadav/trendfinder/internal/service"
	"github.com/amityadav/trendfinder/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// ServerModule provides gRPC and HTTP servers
var ServerModule = fx.Module("server",
	fx.Provide(NewGRPCServer),
	fx.Invoke(
		RegisterGRPCServices,
		StartServers,
		StartRefresher,
	),
)

// NewGRPCServer creates configured gRPC server with logging interceptor
func NewGRPCServer(log *zap.Logger) *grpc.Server {
	loggingInterceptor := middleware.NewLoggingInterceptor(log)
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(loggingInterceptor.Unary()),
	)
	reflection.Register(srv)
	return srv
}

// RegisterGRPCServices registers all gRPC services with the server
func RegisterGRPCServices(srv *grpc.Server, insights *service.InsightsService) {
	service.RegisterInsightsServiceServer(srv, insights)
}

// ServerParams groups dependencies for starting servers
type ServerParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	GRPCServer *grpc.Server
	Dispatcher *dispatch.Dispatcher
	Config     config.Config
	Log        *zap.Logger
}

// StartServers starts gRPC and HTTP servers with lifecycle management
func StartServers(p ServerParams) {
	log := p.Log.Named("server")

	wrappedServer := server.CreateGRPCWebWrapper(p.GRPCServer)
	httpHandler := server.CreateHTTPHandler(wrappedServer)
	restHandler := server.CreateRESTHandler(server.Services{Insights: p.Dispatcher, Log: p.Log})
	combinedHandler := server.CreateCombinedHandler(httpHandler, restHandler)

	// cancelled on stop so open event streams end before Shutdown waits on them
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:        p.Config.HTTPAddr,
		Handler:     server.CreateRecoveryHandler(combinedHandler, log),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", p.Config.GRPCAddr)
			if err != nil {
				return err
			}
			httpLis, err := net.Listen("tcp", p.Config.HTTPAddr)
			if err != nil {
				lis.Close()
				cancelRequests()
				return err
			}

			go func() {
				log.Info("gRPC server listening", zap.String("addr", p.Config.GRPCAddr))
				if err := p.GRPCServer.Serve(lis); err != nil {
					log.Error("gRPC server error", zap.Error(err))
				}
			}()

			go func() {
				log.Info("HTTP server (gRPC-Web + REST) listening", zap.String("addr", p.Config.HTTPAddr))
				if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down servers")
			cancelRequests()
			p.GRPCServer.GracefulStop()
			return httpServer.Shutdown(ctx)
		},
	})
}

// RefresherStartParams for optional worker injection
type RefresherStartParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Refresher *worker.Refresher `optional:"true"`
}

// StartRefresher starts the refresh worker if available
func StartRefresher(p RefresherStartParams) {
	if p.Refresher == nil {
		return
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Refresher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Refresher.Stop()
			return nil
		},
	})
}
