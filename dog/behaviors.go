package dog

import (
	"context"
	"log"

	"github.com/kennelworks/kennel/tools"
)

// Behavior is one dog action the model can call as a tool. Executing it
// applies the state delta and returns the localized action line.
type Behavior struct {
	mgr         *StateManager
	name        string
	description string
	delta       Delta
	action      string
}

func (b *Behavior) Name() string        { return b.name }
func (b *Behavior) Description() string { return b.description }

func (b *Behavior) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (b *Behavior) Execute(ctx context.Context, input string) (string, error) {
	b.mgr.Modify(ctx, b.delta)
	log.Printf("  🐾 %s", b.action)
	return b.action, nil
}

var _ tools.Tool = (*Behavior)(nil)

// Behaviors returns the dog's full repertoire: 32 behaviors across six
// categories (physiological, social, exploration, emotional, training,
// special), each bound to the given state manager.
func Behaviors(mgr *StateManager) []*Behavior {
	b := func(name, description string, delta Delta, action string) *Behavior {
		return &Behavior{mgr: mgr, name: name, description: description, delta: delta, action: action}
	}
	return []*Behavior{
		// Physiological
		b("stretch", "Dog stretches body", Delta{Fatigue: -3, Happiness: 2}, "伸懒腰，前腿向前伸展...感觉舒服多了！"),
		b("yawn", "Dog yawns", Delta{Fatigue: -2}, "张大嘴巴...哈~~~欠~"),
		b("drink_water", "Dog drinks water", Delta{Thirst: -30, Happiness: 5}, "走向水碗...舔舔舔...解渴了！"),
		b("eat_food", "Dog eats food", Delta{Hunger: -40, Happiness: 10, Boredom: -5}, "从碗里吃东西...咀嚼咀嚼...真好吃！"),
		b("lick_fur", "Dog licks and grooms fur", Delta{Happiness: 3, Boredom: -2}, "舔爪子梳理毛发...保持干净！"),
		b("sleep", "Dog sleeps", Delta{Fatigue: -50, Boredom: -10, Hunger: 5}, "蜷缩起来...闭上眼睛...zzz...(安详地睡着了)"),

		// Social
		b("wag_tail", "Dog wags tail happily", Delta{Happiness: 5}, "尾巴兴奋地摇摆！好开心！"),
		b("nuzzle_owner", "Dog nuzzles against owner", Delta{Happiness: 8, Boredom: -5}, "用头蹭主人的腿...寻求关注！"),
		b("lick_hand", "Dog licks owner's hand", Delta{Happiness: 7, Boredom: -3}, "深情地舔主人的手...表达爱意！"),
		b("follow_owner", "Dog follows owner around", Delta{Happiness: 5, Boredom: -5}, "紧紧跟随主人...待在主人身边！"),
		b("look_up_at_owner", "Dog looks up at owner", Delta{Happiness: 3}, "用大眼睛抬头看着主人...等待关注！"),

		// Exploration
		b("sniff_ground", "Dog sniffs the ground", Delta{Boredom: -8, Fatigue: 2}, "鼻子贴着地面...到处闻闻...调查中！"),
		b("walk_in_circles", "Dog walks in circles", Delta{Boredom: -5, Fatigue: 3}, "绕圈走...探索空间！"),
		b("paw_at_object", "Dog paws at objects", Delta{Boredom: -10, Happiness: 5}, "用爪子扒有趣的东西...调查中！"),
		b("look_out_window", "Dog looks out the window", Delta{Boredom: -12, Happiness: 5}, "看向窗外...观察外面的世界！"),
		b("chase_light", "Dog chases light reflections", Delta{Boredom: -15, Fatigue: 8, Happiness: 10}, "追逐光点！兴奋地跑来跑去！"),

		// Emotional
		b("bark", "Dog barks", Delta{Boredom: -5}, "汪！汪！(吠叫)"),
		b("growl", "Dog growls softly", Delta{Happiness: -5}, "呜呜...(低吼声)"),
		b("pin_ears_back", "Dog pins ears back (nervous/submissive)", Delta{Happiness: -3}, "耳朵贴向脑后...感到不安"),
		b("tuck_tail", "Dog tucks tail between legs (scared/submissive)", Delta{Happiness: -5}, "尾巴夹在两腿之间...感到害怕或顺从"),
		b("jump_excitedly", "Dog jumps up and down excitedly", Delta{Happiness: 8, Boredom: -10, Fatigue: 5}, "上下跳跃！太兴奋了！蹦蹦跳跳！"),

		// Training
		b("sit", "Dog sits down", Delta{Happiness: 5, Fatigue: -3}, "乖乖坐下...尾巴摇摆！"),
		b("lie_down", "Dog lies down", Delta{Fatigue: -5, Happiness: 3}, "平躺在地上...休息！"),
		b("shake_paw", "Dog offers paw to shake", Delta{Happiness: 8, Boredom: -5}, "抬起爪子握手...好狗狗的技能！"),
		b("roll_over", "Dog rolls over", Delta{Happiness: 10, Boredom: -8, Fatigue: 3}, "翻滚露出肚皮...展示肚子！棒极了！"),
		b("play_dead", "Dog plays dead", Delta{Happiness: 7, Boredom: -6}, "夸张地倒下...装死！(舌头伸出)"),
		b("fetch_object", "Dog fetches an object", Delta{Happiness: 12, Boredom: -15, Fatigue: 10}, "跑去捡东西...把它叼回来！完美的取物！"),

		// Special
		b("scratch_itch", "Dog scratches an itch", Delta{Happiness: 3}, "用后腿抓痒...啊，舒服多了！"),
		b("sneeze", "Dog sneezes", Delta{}, "阿嚏！(打喷嚏)"),
		b("shake_body", "Dog shakes whole body", Delta{Happiness: 3}, "用力抖动全身...毛发四处飞扬！"),
		b("snore", "Dog snores while sleeping", Delta{}, "呼...呼...(轻轻打呼)"),
		b("dream_twitch", "Dog twitches while dreaming", Delta{}, "腿在抽动...爪子在动...(梦见在奔跑！)"),
	}
}

// RegisterBehaviors adds every behavior to a tool registry.
func RegisterBehaviors(reg tools.Registry, mgr *StateManager) error {
	for _, b := range Behaviors(mgr) {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}
