package main

import (
	"github.com/hashicorp/go-plugin"

	captureout "worksmart/internal/modules/capture/adapter/out"
	capturerpc "worksmart/internal/modules/capture/adapter/out/rpc"
)

func main() {
	provider := captureout.NewSyntheticProvider()
	defer provider.Close()

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: capturerpc.HandshakeConfig,
		Plugins: capturerpc.PluginMap(capturerpc.NewProviderServer(provider, capturerpc.Metadata{
			Name:         "synthetic",
			Version:      "1.0.0",
			Capabilities: []string{"screens", "webcam", "focused_window", "input"},
		})),
		GRPCServer: plugin.DefaultGRPCServer,
	})
}
