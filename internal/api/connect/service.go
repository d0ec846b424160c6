package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/19cast/internal/app/notification"
)

// AdminServiceName is the fully-qualified name of the AdminService.
const AdminServiceName = "cast.v1.AdminService"

// Procedure paths of the AdminService RPCs.
const (
	AdminServiceGetStatusProcedure          = "/cast.v1.AdminService/GetStatus"
	AdminServicePlayProcedure               = "/cast.v1.AdminService/Play"
	AdminServiceStreamProcedure             = "/cast.v1.AdminService/Stream"
	AdminServiceSkipProcedure               = "/cast.v1.AdminService/Skip"
	AdminServiceStopProcedure               = "/cast.v1.AdminService/Stop"
	AdminServicePauseProcedure              = "/cast.v1.AdminService/Pause"
	AdminServiceResumeProcedure             = "/cast.v1.AdminService/Resume"
	AdminServiceSetVolumeProcedure          = "/cast.v1.AdminService/SetVolume"
	AdminServiceListQueueProcedure          = "/cast.v1.AdminService/ListQueue"
	AdminServiceClearQueueProcedure         = "/cast.v1.AdminService/ClearQueue"
	AdminServiceSetRepeatProcedure          = "/cast.v1.AdminService/SetRepeat"
	AdminServiceSetAutoJoinProcedure        = "/cast.v1.AdminService/SetAutoJoin"
	AdminServiceWatchNotificationsProcedure = "/cast.v1.AdminService/WatchNotifications"
)

// AdminServiceHandler is implemented by the admin RPC server.
type AdminServiceHandler interface {
	GetStatus(context.Context, *connect.Request[Empty]) (*connect.Response[GetStatusResponse], error)
	Play(context.Context, *connect.Request[PlayRequest]) (*connect.Response[CommandResponse], error)
	Stream(context.Context, *connect.Request[StreamRequest]) (*connect.Response[CommandResponse], error)
	Skip(context.Context, *connect.Request[Empty]) (*connect.Response[CommandResponse], error)
	Stop(context.Context, *connect.Request[Empty]) (*connect.Response[CommandResponse], error)
	Pause(context.Context, *connect.Request[Empty]) (*connect.Response[CommandResponse], error)
	Resume(context.Context, *connect.Request[Empty]) (*connect.Response[CommandResponse], error)
	SetVolume(context.Context, *connect.Request[SetVolumeRequest]) (*connect.Response[CommandResponse], error)
	ListQueue(context.Context, *connect.Request[Empty]) (*connect.Response[ListQueueResponse], error)
	ClearQueue(context.Context, *connect.Request[Empty]) (*connect.Response[CommandResponse], error)
	SetRepeat(context.Context, *connect.Request[SetRepeatRequest]) (*connect.Response[CommandResponse], error)
	SetAutoJoin(context.Context, *connect.Request[SetAutoJoinRequest]) (*connect.Response[CommandResponse], error)
	WatchNotifications(context.Context, *connect.Request[Empty], *connect.ServerStream[notification.Notification]) error
}

// NewAdminServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewAdminServiceHandler(svc AdminServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	routes := map[string]http.Handler{
		AdminServiceGetStatusProcedure:   connect.NewUnaryHandler(AdminServiceGetStatusProcedure, svc.GetStatus, opts...),
		AdminServicePlayProcedure:        connect.NewUnaryHandler(AdminServicePlayProcedure, svc.Play, opts...),
		AdminServiceStreamProcedure:      connect.NewUnaryHandler(AdminServiceStreamProcedure, svc.Stream, opts...),
		AdminServiceSkipProcedure:        connect.NewUnaryHandler(AdminServiceSkipProcedure, svc.Skip, opts...),
		AdminServiceStopProcedure:        connect.NewUnaryHandler(AdminServiceStopProcedure, svc.Stop, opts...),
		AdminServicePauseProcedure:       connect.NewUnaryHandler(AdminServicePauseProcedure, svc.Pause, opts...),
		AdminServiceResumeProcedure:      connect.NewUnaryHandler(AdminServiceResumeProcedure, svc.Resume, opts...),
		AdminServiceSetVolumeProcedure:   connect.NewUnaryHandler(AdminServiceSetVolumeProcedure, svc.SetVolume, opts...),
		AdminServiceListQueueProcedure:   connect.NewUnaryHandler(AdminServiceListQueueProcedure, svc.ListQueue, opts...),
		AdminServiceClearQueueProcedure:  connect.NewUnaryHandler(AdminServiceClearQueueProcedure, svc.ClearQueue, opts...),
		AdminServiceSetRepeatProcedure:   connect.NewUnaryHandler(AdminServiceSetRepeatProcedure, svc.SetRepeat, opts...),
		AdminServiceSetAutoJoinProcedure: connect.NewUnaryHandler(AdminServiceSetAutoJoinProcedure, svc.SetAutoJoin, opts...),
		AdminServiceWatchNotificationsProcedure: connect.NewServerStreamHandler(
			AdminServiceWatchNotificationsProcedure, svc.WatchNotifications, opts...),
	}
	return "/" + AdminServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// AdminServiceClient calls the AdminService.
type AdminServiceClient struct {
	getStatus          *connect.Client[Empty, GetStatusResponse]
	play               *connect.Client[PlayRequest, CommandResponse]
	stream             *connect.Client[StreamRequest, CommandResponse]
	skip               *connect.Client[Empty, CommandResponse]
	stop               *connect.Client[Empty, CommandResponse]
	pause              *connect.Client[Empty, CommandResponse]
	resume             *connect.Client[Empty, CommandResponse]
	setVolume          *connect.Client[SetVolumeRequest, CommandResponse]
	listQueue          *connect.Client[Empty, ListQueueResponse]
	clearQueue         *connect.Client[Empty, CommandResponse]
	setRepeat          *connect.Client[SetRepeatRequest, CommandResponse]
	setAutoJoin        *connect.Client[SetAutoJoinRequest, CommandResponse]
	watchNotifications *connect.Client[Empty, notification.Notification]
}

// NewAdminServiceClient creates a client for the AdminService at baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &AdminServiceClient{
		getStatus:          connect.NewClient[Empty, GetStatusResponse](httpClient, baseURL+AdminServiceGetStatusProcedure, opts...),
		play:               connect.NewClient[PlayRequest, CommandResponse](httpClient, baseURL+AdminServicePlayProcedure, opts...),
		stream:             connect.NewClient[StreamRequest, CommandResponse](httpClient, baseURL+AdminServiceStreamProcedure, opts...),
		skip:               connect.NewClient[Empty, CommandResponse](httpClient, baseURL+AdminServiceSkipProcedure, opts...),
		stop:               connect.NewClient[Empty, CommandResponse](httpClient, baseURL+AdminServiceStopProcedure, opts...),
		pause:              connect.NewClient[Empty, CommandResponse](httpClient, baseURL+AdminServicePauseProcedure, opts...),
		resume:             connect.NewClient[Empty, CommandResponse](httpClient, baseURL+AdminServiceResumeProcedure, opts...),
		setVolume:          connect.NewClient[SetVolumeRequest, CommandResponse](httpClient, baseURL+AdminServiceSetVolumeProcedure, opts...),
		listQueue:          connect.NewClient[Empty, ListQueueResponse](httpClient, baseURL+AdminServiceListQueueProcedure, opts...),
		clearQueue:         connect.NewClient[Empty, CommandResponse](httpClient, baseURL+AdminServiceClearQueueProcedure, opts...),
		setRepeat:          connect.NewClient[SetRepeatRequest, CommandResponse](httpClient, baseURL+AdminServiceSetRepeatProcedure, opts...),
		setAutoJoin:        connect.NewClient[SetAutoJoinRequest, CommandResponse](httpClient, baseURL+AdminServiceSetAutoJoinProcedure, opts...),
		watchNotifications: connect.NewClient[Empty, notification.Notification](httpClient, baseURL+AdminServiceWatchNotificationsProcedure, opts...),
	}
}

// GetStatus calls cast.v1.AdminService.GetStatus.
func (c *AdminServiceClient) GetStatus(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

// Play calls cast.v1.AdminService.Play.
func (c *AdminServiceClient) Play(ctx context.Context, req *connect.Request[PlayRequest]) (*connect.Response[CommandResponse], error) {
	return c.play.CallUnary(ctx, req)
}

// Stream calls cast.v1.AdminService.Stream.
func (c *AdminServiceClient) Stream(ctx context.Context, req *connect.Request[StreamRequest]) (*connect.Response[CommandResponse], error) {
	return c.stream.CallUnary(ctx, req)
}

// Skip calls cast.v1.AdminService.Skip.
func (c *AdminServiceClient) Skip(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return c.skip.CallUnary(ctx, req)
}

// Stop calls cast.v1.AdminService.Stop.
func (c *AdminServiceClient) Stop(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return c.stop.CallUnary(ctx, req)
}

// Pause calls cast.v1.AdminService.Pause.
func (c *AdminServiceClient) Pause(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return c.pause.CallUnary(ctx, req)
}

// Resume calls cast.v1.AdminService.Resume.
func (c *AdminServiceClient) Resume(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return c.resume.CallUnary(ctx, req)
}

// SetVolume calls cast.v1.AdminService.SetVolume.
func (c *AdminServiceClient) SetVolume(ctx context.Context, req *connect.Request[SetVolumeRequest]) (*connect.Response[CommandResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

// ListQueue calls cast.v1.AdminService.ListQueue.
func (c *AdminServiceClient) ListQueue(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListQueueResponse], error) {
	return c.listQueue.CallUnary(ctx, req)
}

// ClearQueue calls cast.v1.AdminService.ClearQueue.
func (c *AdminServiceClient) ClearQueue(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return c.clearQueue.CallUnary(ctx, req)
}

// SetRepeat calls cast.v1.AdminService.SetRepeat.
func (c *AdminServiceClient) SetRepeat(ctx context.Context, req *connect.Request[SetRepeatRequest]) (*connect.Response[CommandResponse], error) {
	return c.setRepeat.CallUnary(ctx, req)
}

// SetAutoJoin calls cast.v1.AdminService.SetAutoJoin.
func (c *AdminServiceClient) SetAutoJoin(ctx context.Context, req *connect.Request[SetAutoJoinRequest]) (*connect.Response[CommandResponse], error) {
	return c.setAutoJoin.CallUnary(ctx, req)
}

// WatchNotifications calls cast.v1.AdminService.WatchNotifications.
func (c *AdminServiceClient) WatchNotifications(ctx context.Context, req *connect.Request[Empty]) (*connect.ServerStreamForClient[notification.Notification], error) {
	return c.watchNotifications.CallServerStream(ctx, req)
}
