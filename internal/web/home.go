package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Photo Roulette</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Photo Roulette</span>
        <h1>Whose photo is it anyway?</h1>
        <p>Create a room or join one with a 6-character code.</p>
      </header>

      <section class="panel">
        <div>
          <h2>Create a room</h2>
          <p>Get a fresh room code to share with your friends.</p>
        </div>
        <button id="createRoom" class="primary">Create room</button>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <div>
          <h2>Join a room</h2>
          <p>Enter the room code and your display name (2-20 characters).</p>
        </div>
        <form id="joinForm" class="join-form">
          <input name="code" placeholder="Room code" maxlength="6" autocomplete="off" required/>
          <input name="name" placeholder="Display name" minlength="2" maxlength="20" autocomplete="name" required/>
          <button type="submit" class="secondary">Join room</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>

      <section class="panel">
        <div>
          <h2>Active rooms</h2>
          <p>Games running right now on this server.</p>
        </div>
        <ul id="roomList" class="room-list"></ul>
      </section>
    </main>

    <script>
      const createBtn = document.getElementById("createRoom");
      const createResult = document.getElementById("createResult");
      const joinForm = document.getElementById("joinForm");
      const joinResult = document.getElementById("joinResult");
      const roomList = document.getElementById("roomList");

      async function refreshRooms() {
        const res = await fetch("/api/rooms");
        if (!res.ok) {
          return;
        }
        const data = await res.json();
        roomList.innerHTML = "";
        for (const room of data.rooms || []) {
          const item = document.createElement("li");
          item.textContent = room.room_code + " · " + room.phase + " · " + room.players + " players";
          roomList.appendChild(item);
        }
        if (!roomList.children.length) {
          const item = document.createElement("li");
          item.textContent = "No rooms yet";
          roomList.appendChild(item);
        }
      }
      refreshRooms();
      setInterval(refreshRooms, 5000);

      createBtn.addEventListener("click", async () => {
        createResult.textContent = "Creating room...";
        const res = await fetch("/api/rooms", { method: "POST" });
        const data = await res.json();
        if (!res.ok) {
          createResult.textContent = data.error || "Failed to create room";
          return;
        }
        createResult.textContent = "Room code: " + data.room_code;
        refreshRooms();
      });

      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        const form = new FormData(joinForm);
        const code = (form.get("code") || "").toString().toUpperCase();
        if (code.length !== 6) {
          joinResult.textContent = "Room code must be exactly 6 characters";
          return;
        }
        const name = (form.get("name") || "").toString().trim();
        if (name.length < 2) {
          joinResult.textContent = "Name must be at least 2 characters";
          return;
        }
        joinResult.textContent = "Joining...";
        const res = await fetch("/api/rooms/" + code + "/join", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ name }),
        });
        const data = await res.json();
        if (!res.ok) {
          joinResult.textContent = data.error || "Failed to join room";
          return;
        }
        joinResult.textContent = "Joined as player #" + data.player_id;
      });
    </script>
  </body>
</html>`)
		return err
	})
}
