package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gitvault/pkg/app"
	"gitvault/pkg/config"
	"gitvault/pkg/vcserr"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	configErr error
	// 全局应用实例，供子命令使用
	GV *app.App
)

var rootCmd = &cobra.Command{
	Use:           "gv",
	Short:         "gitvault: a small content-addressed version control system",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		setupLogger()

		// 跳过 init 命令的依赖检查 (因为它就是去创建环境的)
		if cmd.Name() == "init" {
			return nil
		}

		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		GV, err = app.Open(cmd.Context(), wd, slog.Default())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

// Execute 是入口
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	// RunE 失败时 PostRun 不会执行
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	return err
}

func closeApp() error {
	if GV == nil {
		return nil
	}
	err := GV.Close()
	GV = nil
	return err
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 定义全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gv/config.yaml)")

	// 2. 定义 storage.path 参数，并绑定到 Viper
	// 这样用户既可以在 yaml 里写，也可以用 --storage-path 覆盖
	rootCmd.PersistentFlags().String("storage-path", "", "directory to store objects")
	if err := viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path")); err != nil {
		fmt.Fprintln(os.Stderr, "failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	configErr = config.Load(cfgFile)
}

// setupLogger 日志统一写到 stderr，stdout 只留给命令结果
func setupLogger() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel()})
	slog.SetDefault(slog.New(handler))
}

// operands 校验位置参数个数，不符时返回用法错误
func operands(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return vcserr.Usagef("incorrect operands")
		}
		return nil
	}
}
